// Package transferset discovers and configures Block 2 DS transfer
// sets.
//
// Servers expose transfer sets under a handful of historical naming
// conventions. The resolver classifies data sets and variables by a
// fixed pattern list and assembles the configuration by folding over
// ordered candidate variable names: the first readable variant wins a
// logical field, and later matches never overwrite it.
package transferset

import (
	"fmt"
	"strings"

	"github.com/tase2-protocol/tase2-go/pkg/log"
	"github.com/tase2-protocol/tase2-go/pkg/mms"
	"github.com/tase2-protocol/tase2-go/pkg/model"
)

// patterns classify a name as a transfer set (case-insensitive substring).
var patterns = []string{
	"DS_TransferSet",
	"Transfer_Set",
	"TransferSet",
	"TS_",
	"DSTS",
}

// statusVariable is the standard transfer set status variable.
const statusVariable = "DSTransferSet_Status"

// nextVariable is the standard linked-list head/next variable.
const nextVariable = "Next_DSTransfer_Set"

// maxChain bounds the Next_DSTransfer_Set walk.
const maxChain = 100

// Transport is the connection subset the resolver drives.
type Transport interface {
	GetDataSetNames(domain string) ([]string, error)
	GetDomainVariables(domain string) ([]string, error)
	ReadVariable(domain, name string) (mms.Value, error)
	WriteVariable(domain, name string, value mms.Value) error
}

// Resolver discovers transfer sets and resolves their configuration.
type Resolver struct {
	transport Transport
	logger    log.Logger
}

// New creates a resolver over the given transport.
func New(transport Transport, logger log.Logger) *Resolver {
	return &Resolver{
		transport: transport,
		logger:    log.OrNoop(logger),
	}
}

// Matches reports whether a name looks like a transfer set.
func Matches(name string) bool {
	lower := strings.ToLower(name)
	for _, p := range patterns {
		if strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// Discover classifies the domain's data sets and variables as transfer
// sets. Data sets are checked first; variables matching the pattern
// set join the result unless they contain "enable" (those are the
// enable/disable controls, not transfer sets) or repeat a name already
// found. Enumeration failures degrade to an empty contribution.
func (r *Resolver) Discover(domain string) ([]model.TransferSet, error) {
	var out []model.TransferSet
	seen := make(map[string]bool)

	add := func(name string) {
		if seen[name] {
			return
		}
		seen[name] = true
		ts := model.TransferSet{Name: name, Domain: domain, DataSet: name}
		// Status is an optional attribute; absence is normal.
		if v, err := r.transport.ReadVariable(domain, name+"_Status"); err == nil {
			if b, ok := boolFromValue(v); ok {
				ts.Enabled = b
			}
		}
		out = append(out, ts)
	}

	dataSets, err := r.transport.GetDataSetNames(domain)
	if err != nil {
		r.logError(domain, "", err, "get data set names")
	}
	for _, name := range dataSets {
		if Matches(name) {
			add(name)
		}
	}

	vars, err := r.transport.GetDomainVariables(domain)
	if err != nil {
		r.logError(domain, "", err, "get domain variables")
	}
	for _, name := range vars {
		if Matches(name) && !strings.Contains(strings.ToLower(name), "enable") {
			add(name)
		}
	}

	r.logger.Log(log.Event{
		Category: log.CategoryDiscovery,
		Op:       log.OpBrowse,
		Domain:   domain,
		Data:     &log.DataEvent{Count: len(out)},
	})
	return out, nil
}

// DiscoverChained walks the Next_DSTransfer_Set linked list: the
// domain-level variable names the first transfer set and each set's
// own next variable chains onward. The walk is bounded and guarded
// against cycles. When the head variable is unreadable the resolver
// falls back to pattern discovery.
func (r *Resolver) DiscoverChained(domain string) ([]model.TransferSet, error) {
	current, ok := r.readName(domain, nextVariable)
	if !ok {
		return r.Discover(domain)
	}

	var out []model.TransferSet
	visited := make(map[string]bool)

	for i := 0; current != "" && i < maxChain; i++ {
		if visited[current] {
			r.logError(domain, current, fmt.Errorf("circular transfer set chain"), "chain walk")
			break
		}
		visited[current] = true

		ts := model.TransferSet{Name: current, Domain: domain, DataSet: current}
		if v, err := r.transport.ReadVariable(domain, current+"_Status"); err == nil {
			if b, ok := boolFromValue(v); ok {
				ts.Enabled = b
			}
		}
		out = append(out, ts)

		next, ok := r.readName(domain, current+"_"+nextVariable)
		if !ok {
			// Some servers only refresh the domain-level variable.
			if n, ok2 := r.readName(domain, nextVariable); ok2 && n != current {
				next = n
			}
		}
		current = next
	}
	return out, nil
}

// Details reads the transfer set configuration. Each logical field has
// an ordered variant list; the fold assigns the first successful read
// to a still-unset field and ignores later matches.
func (r *Resolver) Details(domain, name string) (model.TransferSet, error) {
	ts := model.TransferSet{Name: name, Domain: domain, DataSet: name}

	type candidate struct {
		variable string
		assign   func(*model.TransferSet, mms.Value) bool
	}

	candidates := []candidate{
		{name + "_Interval", assignInt(&ts.Interval)},
		{name + "$Interval", assignInt(&ts.Interval)},
		{name + "_IntegrityCheck", assignInt(&ts.IntegrityTime)},
		{name + "$IntegrityCheck", assignInt(&ts.IntegrityTime)},
		{name + "_BufferTime", assignInt(&ts.BufferTime)},
		{name + "$BufferTime", assignInt(&ts.BufferTime)},
		{name + "_RBE", assignBool(&ts.RBEEnabled)},
		{name + "$RBE", assignBool(&ts.RBEEnabled)},
		{name + "_AllChangesReported", assignBool(&ts.RBEEnabled)},
		{name + "_StartTime", assignInt(&ts.StartTime)},
		{name + "$StartTime", assignInt(&ts.StartTime)},
		{name + "_DSConditions", assignConditions(&ts.Conditions)},
		{name + "$DSConditions", assignConditions(&ts.Conditions)},
	}

	for _, c := range candidates {
		v, err := r.transport.ReadVariable(domain, c.variable)
		if err != nil {
			// Servers expose only one naming convention; misses are routine.
			continue
		}
		c.assign(&ts, v)
	}

	return ts, nil
}

// Enable turns the transfer set on. Candidate enable variables are
// written with true in fixed order, falling back to the bare transfer
// set name. Returns false, never an error, when every write fails:
// enabling is best-effort.
func (r *Resolver) Enable(domain, name string) bool {
	return r.setEnabled(domain, name, true, log.OpEnable)
}

// Disable turns the transfer set off, with the same candidate fold and
// best-effort semantics as Enable.
func (r *Resolver) Disable(domain, name string) bool {
	return r.setEnabled(domain, name, false, log.OpDisable)
}

func (r *Resolver) setEnabled(domain, name string, enabled bool, op log.Op) bool {
	candidates := []string{
		statusVariable,
		name + "_Enable",
		name + "_Enabled",
		"Enable_" + name,
		name + "$Enable",
		name,
	}

	for _, variable := range candidates {
		if err := r.transport.WriteVariable(domain, variable, mms.NewBool(enabled)); err != nil {
			continue
		}
		r.logger.Log(log.Event{
			Direction: log.DirectionOut,
			Category:  log.CategoryState,
			Op:        op,
			Domain:    domain,
			Variable:  name,
			StateChange: &log.StateChangeEvent{
				Entity:   log.StateEntityTransferSet,
				NewState: map[bool]string{true: "ENABLED", false: "DISABLED"}[enabled],
				Reason:   variable,
			},
		})
		return true
	}

	r.logError(domain, name, fmt.Errorf("no enable variable accepted the write"), op.String())
	return false
}

// readName reads a variable expected to hold a transfer set name.
func (r *Resolver) readName(domain, variable string) (string, bool) {
	v, err := r.transport.ReadVariable(domain, variable)
	if err != nil {
		return "", false
	}
	s, err := v.Str()
	if err != nil {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

func (r *Resolver) logError(domain, variable string, err error, context string) {
	r.logger.Log(log.Event{
		Category: log.CategoryError,
		Domain:   domain,
		Variable: variable,
		Error:    &log.ErrorEventData{Message: err.Error(), Context: context},
	})
}

// assignInt sets the target once from a numeric value.
func assignInt(target *int64) func(*model.TransferSet, mms.Value) bool {
	return func(_ *model.TransferSet, v mms.Value) bool {
		if *target != 0 {
			return false
		}
		n, ok := intFromValue(v)
		if !ok {
			return false
		}
		*target = n
		return true
	}
}

// assignBool sets the target once from a boolean-ish value.
func assignBool(target *bool) func(*model.TransferSet, mms.Value) bool {
	return func(_ *model.TransferSet, v mms.Value) bool {
		if *target {
			return false
		}
		b, ok := boolFromValue(v)
		if !ok {
			return false
		}
		*target = b
		return b
	}
}

// assignConditions sets the conditions bitmask once.
func assignConditions(target *model.Conditions) func(*model.TransferSet, mms.Value) bool {
	return func(_ *model.TransferSet, v mms.Value) bool {
		if *target != 0 {
			return false
		}
		n, ok := intFromValue(v)
		if !ok {
			return false
		}
		*target = model.ConditionsFromRaw(uint8(n))
		return true
	}
}

func intFromValue(v mms.Value) (int64, bool) {
	if n, err := v.Int64(); err == nil {
		return n, true
	}
	if f, err := v.Float64(); err == nil {
		return int64(f), true
	}
	if n, err := v.BitStringInt(); err == nil {
		return int64(n), true
	}
	return 0, false
}

func boolFromValue(v mms.Value) (bool, bool) {
	if b, err := v.Bool(); err == nil {
		return b, true
	}
	if n, ok := intFromValue(v); ok {
		return n != 0, true
	}
	return false, false
}
