package service

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mosaicnetworks/geth-runner/src/common"
	"github.com/mosaicnetworks/geth-runner/src/node"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCluster struct {
	phase string
	nodes []*node.Node
}

func (c *fakeCluster) Phase() string {
	return c.phase
}

func (c *fakeCluster) Nodes() []*node.Node {
	return c.nodes
}

func newTestService(t *testing.T) (*Service, *fakeCluster) {
	c := &fakeCluster{
		phase: "connect",
		nodes: []*node.Node{
			node.NewNode(0, "0x8b1e4eaf45b8f9b6cb0a1d3ac1e9e2bcd5f6a701", []int{1}),
			node.NewNode(1, "0x4a3f0c1d2e5b6a7980c1d2e3f4a5b6c7d8e9f012", []int{0}),
		},
	}
	require.NoError(t, c.nodes[0].SetEnode("enode://a@127.0.0.1:4000"))

	return NewService("127.0.0.1:0", c, common.NewTestEntry(t)), c
}

func get(t *testing.T, s *Service, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestGetStatus(t *testing.T) {
	s, _ := newTestService(t)

	rec := get(t, s, "/status")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	var status Status
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))

	assert.Equal(t, "connect", status.Phase)
	require.Len(t, status.Nodes, 2)
	assert.True(t, status.Nodes[0].Ready)
	assert.Equal(t, "enode://a@127.0.0.1:4000", status.Nodes[0].Enode)
	assert.False(t, status.Nodes[1].Ready)
	assert.Equal(t, []int{0}, status.Nodes[1].Peers)
}

func TestGetNode(t *testing.T) {
	s, c := newTestService(t)

	rec := get(t, s, "/node/1")
	require.Equal(t, http.StatusOK, rec.Code)

	var st NodeStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&st))
	assert.Equal(t, c.nodes[1].Address, st.Address)

	assert.Equal(t, http.StatusNotFound, get(t, s, "/node/5").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, s, "/node/x").Code)
}
