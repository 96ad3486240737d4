package p2p

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
	lru "github.com/hashicorp/golang-lru/v2"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/rs/zerolog"

	"github.com/onflow/proof-relay/engine"
	"github.com/onflow/proof-relay/model/hash"
	"github.com/onflow/proof-relay/module/mpsc"
	"github.com/onflow/proof-relay/network"
	"github.com/onflow/proof-relay/network/channels"
)

var _ network.GossipEngine = (*GossipEngine)(nil)
var _ network.ValidatorContext = (*GossipEngine)(nil)

type subscriptionSink = mpsc.Sender[*network.TopicNotification]

// joinedTopic is a pubsub topic the engine has joined. sub is nil until a
// local consumer asks for the topic's messages.
type joinedTopic struct {
	name  string
	topic *pubsub.Topic
	sub   *pubsub.Subscription
}

// GossipEngine is a gossip binding on a libp2p node. Every topic of the
// binding maps to its own pubsub topic, see channels.PubSubTopic.
type GossipEngine struct {
	node      *Node
	log       zerolog.Logger
	binding   channels.Binding
	validator network.Validator

	// known holds the digests of messages published or received on the engine
	known *lru.Cache[hash.Hash, struct{}]

	mu     sync.Mutex
	closed bool
	topics map[channels.Topic]*joinedTopic
	sinks  map[channels.Topic][]*subscriptionSink

	wake engine.Notifier
}

func newGossipEngine(node *Node, binding channels.Binding, validator network.Validator) (*GossipEngine, error) {
	known, err := lru.New[hash.Hash, struct{}](node.cfg.KnownMessagesCacheSize)
	if err != nil {
		return nil, fmt.Errorf("could not create known messages cache: %w", err)
	}
	return &GossipEngine{
		node:      node,
		log:       node.log.With().Str("binding", binding.String()).Logger(),
		binding:   binding,
		validator: validator,
		known:     known,
		topics:    make(map[channels.Topic]*joinedTopic),
		sinks:     make(map[channels.Topic][]*subscriptionSink),
		wake:      engine.NewNotifier(),
	}, nil
}

// MessagesFor subscribes to the topic on first use and returns a new unbounded
// stream of the messages delivered on it. If the subscription fails or the node
// is stopped, the returned stream is already closed.
func (e *GossipEngine) MessagesFor(topic channels.Topic) network.Subscription {
	// unbounded channels cannot fail to be created
	tx, rx, _ := mpsc.New[*network.TopicNotification]()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		tx.Close()
		return rx
	}

	jt, err := e.join(topic)
	if err == nil && jt.sub == nil {
		jt.sub, err = jt.topic.Subscribe()
		if err == nil {
			e.node.pumps.Add(1)
			go e.pump(jt.sub)
			e.log.Debug().Str("topic", jt.name).Msg("subscribed to topic")
		}
	}
	if err != nil {
		e.log.Error().Err(err).Str("topic", topic.String()).Msg("could not subscribe to topic")
		tx.Close()
		return rx
	}

	e.sinks[topic] = append(e.sinks[topic], tx)
	return rx
}

// GossipMessage queues data for publication on the topic. Unless force is set,
// data already known to the engine is skipped.
func (e *GossipEngine) GossipMessage(topic channels.Topic, data []byte, force bool) {
	key := knownMessageKey(topic, data)
	name := channels.PubSubTopic(e.binding, topic)
	if !force && e.known.Contains(key) {
		e.node.metrics.GossipMessageSkipped(name)
		return
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	jt, err := e.join(topic)
	e.mu.Unlock()
	if err != nil {
		e.log.Error().Err(err).Str("topic", name).Msg("could not join topic")
		return
	}

	e.known.Add(key, struct{}{})
	err = e.node.publishTx.TrySend(&publishRequest{
		topic: jt.topic,
		name:  jt.name,
		data:  append([]byte(nil), data...),
	})
	if err != nil {
		e.log.Debug().Err(err).Str("topic", name).Msg("gossip message dropped")
		return
	}
	e.node.metrics.GossipMessagePublished(name, len(data), force)
}

// BroadcastMessage publishes on behalf of the engine's validator.
func (e *GossipEngine) BroadcastMessage(topic channels.Topic, data []byte, force bool) {
	e.GossipMessage(topic, data, force)
}

// Poll returns PollReady once the node was stopped.
func (e *GossipEngine) Poll() network.PollResult {
	if e.node.stopped.Load() {
		return network.PollReady
	}
	return network.PollPending
}

// Wake receives when the node is stopped.
func (e *GossipEngine) Wake() <-chan struct{} {
	return e.wake.Channel()
}

// join registers the topic validator and joins the pubsub topic, unless this
// was done before. Callers must hold e.mu.
func (e *GossipEngine) join(topic channels.Topic) (*joinedTopic, error) {
	if jt, ok := e.topics[topic]; ok {
		return jt, nil
	}

	name := channels.PubSubTopic(e.binding, topic)
	v := &topicValidator{
		log:       e.log,
		self:      e.node.host.ID(),
		binding:   e.binding,
		validator: e.validator,
		ctx:       e,
		metrics:   e.node.metrics,
		deliver:   e.deliver,
	}
	err := e.node.pubSub.RegisterTopicValidator(name, v.Validate)
	if err != nil {
		return nil, fmt.Errorf("could not register validator for topic (%s): %w", name, err)
	}

	tp, err := e.node.pubSub.Join(name)
	if err != nil {
		_ = e.node.pubSub.UnregisterTopicValidator(name)
		return nil, fmt.Errorf("could not join topic (%s): %w", name, err)
	}

	jt := &joinedTopic{name: name, topic: tp}
	e.topics[topic] = jt
	return jt, nil
}

// pump forwards the messages accepted by the topic validator to the local
// subscribers until the subscription is cancelled. Messages published by this
// node are skipped.
func (e *GossipEngine) pump(sub *pubsub.Subscription) {
	defer e.node.pumps.Done()

	self := e.node.host.ID()
	for {
		msg, err := sub.Next(e.node.ctx)
		if err != nil {
			return
		}
		if msg.ReceivedFrom == self {
			continue
		}
		topic, ok := msg.ValidatorData.(channels.Topic)
		if !ok {
			continue
		}
		e.deliver(topic, msg.ReceivedFrom, msg.Data)
	}
}

// deliver pushes a notification to every local subscriber of topic.
// Subscriptions whose receiver was closed are removed.
func (e *GossipEngine) deliver(topic channels.Topic, sender network.PeerID, data []byte) {
	e.known.Add(knownMessageKey(topic, data), struct{}{})

	e.mu.Lock()
	defer e.mu.Unlock()

	sinks := e.sinks[topic]
	live := sinks[:0]
	for _, sink := range sinks {
		err := sink.TrySend(&network.TopicNotification{
			Sender:  sender,
			Message: append([]byte(nil), data...),
		})
		if errors.Is(err, mpsc.ErrClosed) {
			continue
		}
		live = append(live, sink)
	}
	e.sinks[topic] = live
}

// close cancels the engine's subscriptions, leaves its topics and closes the
// streams returned by MessagesFor.
func (e *GossipEngine) close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true

	var result error
	for topic, jt := range e.topics {
		if jt.sub != nil {
			jt.sub.Cancel()
		}
		// once the router's context is done, the router already dropped its
		// validators and topics
		if err := e.node.pubSub.UnregisterTopicValidator(jt.name); err != nil && !errors.Is(err, context.Canceled) {
			result = multierror.Append(result, fmt.Errorf("could not unregister validator of topic (%s): %w", jt.name, err))
		}
		if err := jt.topic.Close(); err != nil && !errors.Is(err, context.Canceled) {
			result = multierror.Append(result, fmt.Errorf("could not close topic (%s): %w", jt.name, err))
		}
		delete(e.topics, topic)
	}

	for topic, sinks := range e.sinks {
		for _, sink := range sinks {
			sink.Close()
		}
		delete(e.sinks, topic)
	}

	e.wake.Notify()
	return result
}

// knownMessageKey identifies a message in the known-message cache.
func knownMessageKey(topic channels.Topic, data []byte) hash.Hash {
	b := make([]byte, 0, len(topic)+len(data))
	b = append(b, topic[:]...)
	b = append(b, data...)
	return hash.DefaultHasher.Hash(b)
}
