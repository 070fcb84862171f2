// Package audit implements the security posture analyzer.
//
// The analyzer walks the discovered object model, probes reads,
// counts control-looking points by name, sums transfer sets and
// derives the server's apparent conformance blocks. It is a heuristic
// survey tool for commissioning and assessments, not a conformance
// certifier: keyword matches produce false positives by design.
package audit

import (
	"fmt"
	"strings"
	"time"

	"github.com/tase2-protocol/tase2-go/pkg/catalog"
	"github.com/tase2-protocol/tase2-go/pkg/log"
	"github.com/tase2-protocol/tase2-go/pkg/mms"
	"github.com/tase2-protocol/tase2-go/pkg/model"
	"github.com/tase2-protocol/tase2-go/pkg/transferset"
)

// maxVariablesPerDomain caps read probes to bound analysis cost.
const maxVariablesPerDomain = 50

// controlKeywords flag a variable as a potential control point.
var controlKeywords = []string{
	"control", "command", "setpoint", "breaker",
	"switch", "valve", "output", "operate",
}

// infoBufferMarkers flag Block 4 information message support.
var infoBufferMarkers = []string{"im_transfer", "information_buffer", "infobuffer"}

// Conformance block display names.
const (
	blockBasic   = "Block 1 (Basic)"
	blockRBE     = "Block 2 (RBE)"
	blockInfoMsg = "Block 4 (Info Messages)"
	blockControl = "Block 5 (Control)"
)

// Reader is the read-probe subset of the transport.
type Reader interface {
	ReadVariable(domain, name string) (mms.Value, error)
}

// BilateralInfo supplies the bilateral table identity, when available.
// Count is -1 when unreadable.
type BilateralInfo struct {
	ID    string
	Count int
}

// Findings is the structured result of a security analysis.
type Findings struct {
	GeneratedAt time.Time

	// DomainCount is the number of discovered domains.
	DomainCount int

	// ReadablePoints counts variables whose read probe succeeded.
	ReadablePoints int

	// ControlPoints counts variables whose name matches a control
	// keyword, regardless of read outcome.
	ControlPoints int

	// TransferSets counts transfer sets across all domains.
	TransferSets int

	// AccessControl is set when a bilateral table ID or count was found.
	AccessControl    bool
	BilateralTableID string

	// ConformanceBlocks lists the apparent conformance blocks.
	ConformanceBlocks []string

	Concerns        []string
	Recommendations []string
}

// Analyzer runs the security survey.
type Analyzer struct {
	catalog   *catalog.Catalog
	resolver  *transferset.Resolver
	reader    Reader
	bilateral func() BilateralInfo
	logger    log.Logger
}

// Config wires the analyzer's collaborators.
type Config struct {
	// Catalog supplies the discovered domains. Required.
	Catalog *catalog.Catalog

	// Resolver discovers transfer sets per domain. Required.
	Resolver *transferset.Resolver

	// Reader performs the read probes. Required.
	Reader Reader

	// Bilateral supplies bilateral table identity; nil disables the
	// access-control check.
	Bilateral func() BilateralInfo

	// Logger for analysis events. Default NoopLogger.
	Logger log.Logger
}

// New creates an analyzer.
func New(cfg Config) *Analyzer {
	return &Analyzer{
		catalog:   cfg.Catalog,
		resolver:  cfg.Resolver,
		reader:    cfg.Reader,
		bilateral: cfg.Bilateral,
		logger:    log.OrNoop(cfg.Logger),
	}
}

// Run walks the model and produces findings. Only domain discovery
// failure is fatal; every per-variable and per-domain probe degrades.
func (a *Analyzer) Run() (*Findings, error) {
	domains, err := a.catalog.Domains(false)
	if err != nil {
		return nil, fmt.Errorf("audit: %w", err)
	}

	f := &Findings{
		GeneratedAt: time.Now(),
		DomainCount: len(domains),
	}

	if a.bilateral != nil {
		info := a.bilateral()
		if info.ID != "" || info.Count > 0 {
			f.AccessControl = true
			f.BilateralTableID = info.ID
		}
	}

	for _, domain := range domains {
		a.surveyDomain(domain, f)
	}

	f.ConformanceBlocks = append(f.ConformanceBlocks, blockBasic)
	if f.TransferSets > 0 {
		f.ConformanceBlocks = append(f.ConformanceBlocks, blockRBE)
	}
	if hasInfoBuffers(domains) {
		f.ConformanceBlocks = append(f.ConformanceBlocks, blockInfoMsg)
	}
	if f.ControlPoints > 0 {
		f.ConformanceBlocks = append(f.ConformanceBlocks, blockControl)
	}

	a.assess(f)
	return f, nil
}

// surveyDomain probes one domain's variables and transfer sets.
func (a *Analyzer) surveyDomain(domain model.Domain, f *Findings) {
	vars := domain.Variables
	if len(vars) > maxVariablesPerDomain {
		vars = vars[:maxVariablesPerDomain]
	}

	for _, name := range vars {
		if _, err := a.reader.ReadVariable(domain.Name, name); err == nil {
			f.ReadablePoints++
		} else {
			a.logger.Log(log.Event{
				Category: log.CategoryError,
				Op:       log.OpRead,
				Domain:   domain.Name,
				Variable: name,
				Error:    &log.ErrorEventData{Message: err.Error(), Context: "audit read probe"},
			})
		}
		if isControlName(name) {
			f.ControlPoints++
		}
	}

	sets, err := a.resolver.Discover(domain.Name)
	if err == nil {
		f.TransferSets += len(sets)
	}
}

// assess appends the concern and recommendation lists.
func (a *Analyzer) assess(f *Findings) {
	f.Concerns = append(f.Concerns,
		"TASE.2 has no built-in authentication - relies on bilateral tables",
		"No encryption at application layer - data transmitted in plaintext",
	)
	if f.ReadablePoints > 0 {
		f.Concerns = append(f.Concerns,
			fmt.Sprintf("%d data points accessible without authentication", f.ReadablePoints))
	}
	if f.ControlPoints > 0 {
		f.Concerns = append(f.Concerns,
			fmt.Sprintf("%d potential control points identified", f.ControlPoints))
	}
	if !f.AccessControl {
		f.Concerns = append(f.Concerns,
			"No bilateral table detected - access control may be misconfigured")
	}

	f.Recommendations = append(f.Recommendations,
		"Implement network segmentation and firewall rules",
		"Use TLS wrapper or VPN for transport security",
		"Configure bilateral tables to restrict access",
	)
	if f.ControlPoints > 0 {
		f.Recommendations = append(f.Recommendations,
			"Review control point access permissions")
	}
}

// isControlName reports whether a variable name matches a control keyword.
func isControlName(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range controlKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// hasInfoBuffers scans all variables (not capped) for Block 4 markers.
func hasInfoBuffers(domains []model.Domain) bool {
	for _, d := range domains {
		for _, name := range d.Variables {
			lower := strings.ToLower(name)
			for _, marker := range infoBufferMarkers {
				if strings.Contains(lower, marker) {
					return true
				}
			}
		}
	}
	return false
}
