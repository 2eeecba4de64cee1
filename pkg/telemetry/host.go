package telemetry

import (
	"github.com/vango-dev/shadowdom/pkg/live"
)

// countingHost counts every successful call to the wrapped host.
type countingHost struct {
	next    live.Host
	metrics *Metrics
}

// InstrumentHost wraps h so that every successful call increments
// host_ops_total. A nil m returns h unchanged.
func InstrumentHost(h live.Host, m *Metrics) live.Host {
	if m == nil {
		return h
	}
	return &countingHost{next: h, metrics: m}
}

func (c *countingHost) count(op live.Op, err error) {
	if err == nil {
		c.metrics.HostOp(op)
	}
}

func (c *countingHost) CreateElement(tag string) (live.Handle, error) {
	h, err := c.next.CreateElement(tag)
	c.count(live.OpCreateElement, err)
	return h, err
}

func (c *countingHost) CreateText(content string) (live.Handle, error) {
	h, err := c.next.CreateText(content)
	c.count(live.OpCreateText, err)
	return h, err
}

func (c *countingHost) CreateComment(content string) (live.Handle, error) {
	h, err := c.next.CreateComment(content)
	c.count(live.OpCreateComment, err)
	return h, err
}

func (c *countingHost) SetAttribute(h live.Handle, name, value string) error {
	err := c.next.SetAttribute(h, name, value)
	c.count(live.OpSetAttribute, err)
	return err
}

func (c *countingHost) RemoveAttribute(h live.Handle, name string) error {
	err := c.next.RemoveAttribute(h, name)
	c.count(live.OpRemoveAttribute, err)
	return err
}

func (c *countingHost) AppendChild(parent, child live.Handle) error {
	err := c.next.AppendChild(parent, child)
	c.count(live.OpAppendChild, err)
	return err
}

func (c *countingHost) ReplaceChild(parent, newChild, oldChild live.Handle) error {
	err := c.next.ReplaceChild(parent, newChild, oldChild)
	c.count(live.OpReplaceChild, err)
	return err
}

func (c *countingHost) RemoveChild(parent, child live.Handle) error {
	err := c.next.RemoveChild(parent, child)
	c.count(live.OpRemoveChild, err)
	return err
}
