package host

import "sync"

// AudioContext is the host audio graph root.
type AudioContext struct {
	mu    sync.Mutex
	state string
}

func NewAudioContext() *AudioContext {
	return &AudioContext{state: "suspended"}
}

func (c *AudioContext) State() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *AudioContext) setState(s string) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// AudioNode is a node of the audio graph.
type AudioNode struct {
	mu      sync.Mutex
	name    string
	outputs []*AudioNode
}

func NewAudioNode(name string) *AudioNode {
	return &AudioNode{name: name}
}

func (n *AudioNode) Name() string { return n.name }

func (n *AudioNode) Outputs() []*AudioNode {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]*AudioNode, len(n.outputs))
	copy(out, n.outputs)
	return out
}

func (n *AudioNode) connect(dest *AudioNode) {
	n.mu.Lock()
	n.outputs = append(n.outputs, dest)
	n.mu.Unlock()
}
