package mqtt

import "fmt"

// Subscribe registers h for topic, which may use + and # wildcards. The
// subscription is replayed after a reconnect; a rejected one is forgotten.
func (c *Client) Subscribe(topic string, qos byte, h MessageHandler) error {
	if err := validate(topic, qos); err != nil {
		return err
	}
	if h == nil {
		return fmt.Errorf("%w: nil handler", ErrSubscribeFailed)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	c.mu.Lock()
	c.subs[topic] = subscription{qos: qos, handler: h}
	c.mu.Unlock()

	if err := wait(c.paho.Subscribe(topic, qos, c.deliver(h)), ackTimeout); err != nil {
		c.forget(topic)
		return fmt.Errorf("%w: %s: %w", ErrSubscribeFailed, topic, err)
	}
	return nil
}

// Unsubscribe drops topic. With no connection only the local record goes.
func (c *Client) Unsubscribe(topic string) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	c.forget(topic)
	if !c.IsConnected() {
		return nil
	}
	return wait(c.paho.Unsubscribe(topic), ackTimeout)
}

// HasSubscription reports whether topic will be replayed on reconnect.
func (c *Client) HasSubscription(topic string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.subs[topic]
	return ok
}

func (c *Client) forget(topic string) {
	c.mu.Lock()
	delete(c.subs, topic)
	c.mu.Unlock()
}
