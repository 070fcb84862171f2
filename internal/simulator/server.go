// Package simulator provides an in-memory TASE.2 server for
// integration tests and the example commands. It implements the
// client's Connection contract over a scripted object model; there is
// no network transport underneath.
package simulator

import (
	"fmt"
	"sync"
	"time"

	"github.com/tase2-protocol/tase2-go/pkg/mms"
)

// Server is a scripted in-memory TASE.2 server.
type Server struct {
	mu        sync.RWMutex
	connected bool
	domains   []string
	vars      map[string][]string
	dataSets  map[string][]string
	members   map[string][]string
	points    map[string]mms.Value
	writes    map[string]int

	vendor   string
	model    string
	revision string

	// OnWrite is called after every accepted write, outside the lock.
	OnWrite func(domain, name string, value mms.Value)
}

// New creates an empty server.
func New() *Server {
	return &Server{
		vars:     map[string][]string{},
		dataSets: map[string][]string{},
		members:  map[string][]string{},
		points:   map[string]mms.Value{},
		writes:   map[string]int{},
		vendor:   "tase2-go",
		model:    "simulator",
		revision: "1",
	}
}

// AddDomain registers a domain. Order is preserved.
func (s *Server) AddDomain(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.domains {
		if d == name {
			return
		}
	}
	s.domains = append(s.domains, name)
	if s.vars[name] == nil {
		s.vars[name] = []string{}
	}
	if s.dataSets[name] == nil {
		s.dataSets[name] = []string{}
	}
}

// AddPoint registers a variable with its value. The domain is created
// when absent.
func (s *Server) AddPoint(domain, name string, value mms.Value) {
	s.AddDomain(domain)
	s.mu.Lock()
	defer s.mu.Unlock()
	key := domain + "/" + name
	if _, exists := s.points[key]; !exists {
		s.vars[domain] = append(s.vars[domain], name)
	}
	s.points[key] = value
}

// AddDataSet registers a named variable list over existing points.
func (s *Server) AddDataSet(domain, name string, memberNames ...string) {
	s.AddDomain(domain)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dataSets[domain] = append(s.dataSets[domain], name)
	s.members[domain+"/"+name] = memberNames
}

// SetIdentity sets the MMS identify response.
func (s *Server) SetIdentity(vendor, model, revision string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vendor, s.model, s.revision = vendor, model, revision
}

// Writes returns how many writes a variable accepted.
func (s *Server) Writes(domain, name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes[domain+"/"+name]
}

// Value returns the current value of a variable.
func (s *Server) Value(domain, name string) (mms.Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.points[domain+"/"+name]
	return v, ok
}

// Connect marks the association open. Always succeeds.
func (s *Server) Connect(host string, port int, timeout time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = true
	return nil
}

// Disconnect marks the association closed.
func (s *Server) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
}

// IsConnected reports the association state.
func (s *Server) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// GetDomainNames enumerates the domains.
func (s *Server) GetDomainNames() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.domains))
	copy(out, s.domains)
	return out, nil
}

// GetDomainVariables enumerates one domain's variables.
func (s *Server) GetDomainVariables(domain string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vars, ok := s.vars[domain]
	if !ok {
		return nil, fmt.Errorf("simulator: domain %s does not exist", domain)
	}
	out := make([]string, len(vars))
	copy(out, vars)
	return out, nil
}

// GetDataSetNames enumerates one domain's named variable lists.
func (s *Server) GetDataSetNames(domain string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sets, ok := s.dataSets[domain]
	if !ok {
		return nil, fmt.Errorf("simulator: domain %s does not exist", domain)
	}
	out := make([]string, len(sets))
	copy(out, sets)
	return out, nil
}

// ReadVariable reads one variable.
func (s *Server) ReadVariable(domain, name string) (mms.Value, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.points[domain+"/"+name]
	if !ok {
		return mms.Value{}, fmt.Errorf("simulator: object %s/%s does not exist", domain, name)
	}
	return v, nil
}

// WriteVariable writes one variable. Writes to unknown names fail, so
// the client's candidate-name folds behave as against a real server.
func (s *Server) WriteVariable(domain, name string, value mms.Value) error {
	key := domain + "/" + name
	s.mu.Lock()
	if _, ok := s.points[key]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("simulator: object %s/%s does not exist", domain, name)
	}
	s.points[key] = value
	s.writes[key]++
	fn := s.OnWrite
	s.mu.Unlock()

	if fn != nil {
		fn(domain, name, value)
	}
	return nil
}

// ReadDataSetValues reads every member of a named variable list.
func (s *Server) ReadDataSetValues(domain, name string) ([]mms.Value, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	memberNames, ok := s.members[domain+"/"+name]
	if !ok {
		return nil, fmt.Errorf("simulator: data set %s/%s does not exist", domain, name)
	}
	out := make([]mms.Value, 0, len(memberNames))
	for _, m := range memberNames {
		v, ok := s.points[domain+"/"+m]
		if !ok {
			v = mms.NewDataAccessError(1)
		}
		out = append(out, v)
	}
	return out, nil
}

// GetServerIdentity returns the configured identity.
func (s *Server) GetServerIdentity() (string, string, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vendor, s.model, s.revision, nil
}
