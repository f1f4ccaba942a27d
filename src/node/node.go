package node

import (
	"fmt"

	"github.com/mosaicnetworks/geth-runner/src/common"
	"github.com/mosaicnetworks/geth-runner/src/console"
)

// Node is the controller's record of one worker. ID, Address and Peers are
// fixed at creation; the session and the enode are each set exactly once,
// while the worker is spawned.
type Node struct {
	ID      int
	Address string

	// Peers are indices into the controller's node collection.
	Peers []int

	session common.Slot[*console.Session]
	enode   common.Slot[string]
}

// NewNode ...
func NewNode(id int, address string, peers []int) *Node {
	return &Node{
		ID:      id,
		Address: address,
		Peers:   peers,
	}
}

// Name identifies the node in errors and logs.
func (n *Node) Name() string {
	return fmt.Sprintf("node %d", n.ID)
}

// Attach binds s as the node's console session.
func (n *Node) Attach(s *console.Session) error {
	if !n.session.Set(s) {
		return common.NewRunErr(n.Name(), common.AlreadyInitialized, "attach session", nil)
	}
	return nil
}

// Session returns the node's console session.
func (n *Node) Session() (*console.Session, error) {
	s, ok := n.session.Get()
	if !ok {
		return nil, common.NewRunErr(n.Name(), common.NotInitialized, "session", nil)
	}
	return s, nil
}

// SetEnode records the connection identifier the worker reported.
func (n *Node) SetEnode(enode string) error {
	if !n.enode.Set(enode) {
		return common.NewRunErr(n.Name(), common.AlreadyInitialized, "set enode", nil)
	}
	return nil
}

// Enode returns the node's connection identifier.
func (n *Node) Enode() (string, error) {
	e, ok := n.enode.Get()
	if !ok {
		return "", common.NewRunErr(n.Name(), common.NotInitialized, "enode", nil)
	}
	return e, nil
}

// Exec sends cmd through the node's session and returns the response.
func (n *Node) Exec(cmd string) (string, error) {
	s, err := n.Session()
	if err != nil {
		return "", err
	}
	return s.SendWithResponse(cmd)
}
