package service

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/mosaicnetworks/geth-runner/src/node"
	"github.com/sirupsen/logrus"
)

// Cluster is what the service reports on. *runner.Runner implements it.
type Cluster interface {
	Phase() string
	Nodes() []*node.Node
}

// NodeStatus ...
type NodeStatus struct {
	ID      int    `json:"id"`
	Address string `json:"address"`
	Enode   string `json:"enode,omitempty"`
	Peers   []int  `json:"peers"`
	Ready   bool   `json:"ready"`
}

// Status ...
type Status struct {
	Phase string       `json:"phase"`
	Nodes []NodeStatus `json:"nodes"`
}

// Service exposes the state of a run over HTTP. It only reads the node
// records, it never talks to the workers.
type Service struct {
	bindAddress string
	cluster     Cluster
	mux         *http.ServeMux
	logger      *logrus.Entry
}

// NewService ...
func NewService(bindAddress string, c Cluster, logger *logrus.Entry) *Service {
	service := Service{
		bindAddress: bindAddress,
		cluster:     c,
		mux:         http.NewServeMux(),
		logger:      logger,
	}

	service.registerHandlers()

	return &service
}

func (s *Service) registerHandlers() {
	s.logger.Debug("Registering status API handlers")
	s.mux.HandleFunc("/status", s.makeHandler(s.GetStatus))
	s.mux.HandleFunc("/node/", s.makeHandler(s.GetNode))
}

func (s *Service) makeHandler(fn func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// enable CORS
		w.Header().Set("Access-Control-Allow-Origin", "*")

		fn(w, r)
	}
}

// Handler returns the handler serving the API.
func (s *Service) Handler() http.Handler {
	return s.mux
}

// Serve calls ListenAndServe. This is a blocking call.
func (s *Service) Serve() {
	s.logger.WithField("bind_address", s.bindAddress).Debug("Serving status API")

	err := http.ListenAndServe(s.bindAddress, s.mux)
	if err != nil {
		s.logger.Error(err)
	}
}

// GetStatus ...
func (s *Service) GetStatus(w http.ResponseWriter, r *http.Request) {
	nodes := s.cluster.Nodes()

	status := Status{
		Phase: s.cluster.Phase(),
		Nodes: make([]NodeStatus, len(nodes)),
	}
	for i, n := range nodes {
		status.Nodes[i] = nodeStatus(n)
	}

	writeJSON(w, status)
}

// GetNode ...
func (s *Service) GetNode(w http.ResponseWriter, r *http.Request) {
	param := r.URL.Path[len("/node/"):]

	id, err := strconv.Atoi(param)
	if err != nil {
		s.logger.WithError(err).Errorf("Parsing node id parameter %s", param)

		http.Error(w, err.Error(), http.StatusBadRequest)

		return
	}

	nodes := s.cluster.Nodes()
	if id < 0 || id >= len(nodes) {
		http.Error(w, "no such node", http.StatusNotFound)

		return
	}

	writeJSON(w, nodeStatus(nodes[id]))
}

func nodeStatus(n *node.Node) NodeStatus {
	enode, err := n.Enode()

	return NodeStatus{
		ID:      n.ID,
		Address: n.Address,
		Enode:   enode,
		Peers:   n.Peers,
		Ready:   err == nil,
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(v)
}
