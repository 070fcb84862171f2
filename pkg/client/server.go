package client

import (
	"fmt"
	"strings"

	"github.com/tase2-protocol/tase2-go/pkg/audit"
	"github.com/tase2-protocol/tase2-go/pkg/mms"
	"github.com/tase2-protocol/tase2-go/pkg/model"
)

// Bilateral table variable name candidates. The ID is ICC-scoped, the
// count is published at VCC scope.
var (
	bltIDCandidates = []string{
		"Bilateral_Table_ID",
		"BilateralTableId",
	}
	bltCountCandidates = []string{
		"Server_Bilateral_Table_Count",
		"ServerBilateralTableCount",
		"NumBilateralTables",
	}
)

// supportedFeaturesCandidates name the conformance bitstring variable.
var supportedFeaturesCandidates = []string{"Supported_Features", "SupportedFeatures"}

// versionCandidates name the protocol version variable.
var versionCandidates = []string{"TASE2_Version", "TASE_2_Version"}

// ServerInfo returns the server identity and bilateral table
// metadata. The result is cached for the life of the association.
func (c *Client) ServerInfo() (model.ServerInfo, error) {
	if err := c.ensureConnected(); err != nil {
		return model.ServerInfo{}, err
	}

	c.mu.Lock()
	cached := c.serverInfo
	c.mu.Unlock()
	if cached != nil {
		return *cached, nil
	}

	vendor, mdl, revision, err := c.conn.GetServerIdentity()
	if err != nil {
		c.noteError(err)
		return model.ServerInfo{}, fmt.Errorf("client: server identity: %w", err)
	}
	c.noteSuccess()

	info := model.ServerInfo{
		Vendor:              vendor,
		Model:               mdl,
		Revision:            revision,
		BilateralTableID:    c.BilateralTableID(""),
		BilateralTableCount: c.ServerBilateralTableCount(),
	}

	c.mu.Lock()
	c.serverInfo = &info
	c.mu.Unlock()
	return info, nil
}

// BilateralTableID reads the bilateral table identifier. The ID is an
// ICC-scoped variable, so ICC domains are searched before VCC; an
// explicit domain restricts the search. Returns "" when no domain
// publishes it.
func (c *Client) BilateralTableID(domain string) string {
	domains, err := c.bltSearchDomains(domain, false)
	if err != nil {
		return ""
	}

	for _, d := range domains {
		for _, candidate := range bltIDCandidates {
			name, ok := matchVariable(d.Variables, candidate)
			if !ok {
				continue
			}
			raw, err := c.conn.ReadVariable(d.Name, name)
			if err != nil {
				continue
			}
			if id, err := raw.Str(); err == nil && id != "" {
				return id
			}
		}
	}
	return ""
}

// ServerBilateralTableCount reads the number of bilateral tables the
// server holds, a VCC-scope variable. Returns 0 when unreadable.
func (c *Client) ServerBilateralTableCount() int {
	domains, err := c.bltSearchDomains("", true)
	if err != nil {
		return 0
	}

	for _, d := range domains {
		for _, candidate := range bltCountCandidates {
			name, ok := matchVariable(d.Variables, candidate)
			if !ok {
				continue
			}
			raw, err := c.conn.ReadVariable(d.Name, name)
			if err != nil {
				continue
			}
			if count, err := raw.Int64(); err == nil {
				return int(count)
			}
		}
	}
	return 0
}

// bltSearchDomains orders domains for bilateral table lookups:
// VCC-only for the count, ICC-first for the ID.
func (c *Client) bltSearchDomains(domain string, vccOnly bool) ([]model.Domain, error) {
	if domain != "" {
		d, err := c.catalog.Domain(domain)
		if err != nil {
			return nil, err
		}
		return []model.Domain{d}, nil
	}

	domains, err := c.catalog.Domains(false)
	if err != nil {
		return nil, err
	}
	if vccOnly {
		var vcc []model.Domain
		for _, d := range domains {
			if d.IsVCC() {
				vcc = append(vcc, d)
			}
		}
		return vcc, nil
	}

	var icc, vcc []model.Domain
	for _, d := range domains {
		if d.IsVCC() {
			vcc = append(vcc, d)
		} else {
			icc = append(icc, d)
		}
	}
	return append(icc, vcc...), nil
}

// matchVariable finds a variable by name, falling back to a
// case-insensitive scan for non-conformant servers.
func matchVariable(variables []string, candidate string) (string, bool) {
	for _, v := range variables {
		if v == candidate {
			return v, true
		}
	}
	for _, v := range variables {
		if strings.EqualFold(v, candidate) {
			return v, true
		}
	}
	return "", false
}

// SupportedFeatures reads and decodes the Supported_Features
// conformance bitstring. Returns nil when no domain publishes it.
func (c *Client) SupportedFeatures() ([]model.ConformanceBlock, error) {
	if err := c.ensureConnected(); err != nil {
		return nil, err
	}
	domains, err := c.catalog.Domains(false)
	if err != nil {
		return nil, err
	}

	for _, d := range domains {
		for _, candidate := range supportedFeaturesCandidates {
			name, ok := matchVariable(d.Variables, candidate)
			if !ok {
				continue
			}
			raw, err := c.conn.ReadVariable(d.Name, name)
			if err != nil {
				continue
			}
			if blocks, ok := featureBlocks(raw); ok {
				return blocks, nil
			}
		}
	}
	return nil, nil
}

// featureBlocks decodes the bitstring or integer representation of
// Supported_Features.
func featureBlocks(raw mms.Value) ([]model.ConformanceBlock, bool) {
	if size, err := raw.BitStringSize(); err == nil {
		bits := make([]byte, (size+7)/8)
		for i := 0; i < size; i++ {
			if set, err := raw.Bit(i); err == nil && set {
				bits[i/8] |= 0x80 >> (i % 8)
			}
		}
		return model.SupportedFeaturesBlocks(bits, size), true
	}

	// Integer form: blocks 1-8 in the low byte MSB-first, block 9 in
	// the MSB of the second byte.
	if n, err := raw.Int64(); err == nil {
		bits := []byte{byte(n), byte(n >> 8)}
		return model.SupportedFeaturesBlocks(bits, 16), true
	}
	return nil, false
}

// TASE2Version reads the protocol version string the server
// publishes, "" when absent.
func (c *Client) TASE2Version() string {
	domains, err := c.catalog.Domains(false)
	if err != nil {
		return ""
	}

	for _, d := range domains {
		for _, candidate := range versionCandidates {
			name, ok := matchVariable(d.Variables, candidate)
			if !ok {
				continue
			}
			raw, err := c.conn.ReadVariable(d.Name, name)
			if err != nil {
				continue
			}
			if version, err := raw.Str(); err == nil && version != "" {
				return version
			}
		}
	}
	return ""
}

// AnalyzeSecurity surveys the server's object model and returns the
// structured security findings.
func (c *Client) AnalyzeSecurity() (*audit.Findings, error) {
	if err := c.ensureConnected(); err != nil {
		return nil, err
	}

	analyzer := audit.New(audit.Config{
		Catalog:  c.catalog,
		Resolver: c.resolver,
		Reader:   c.conn,
		Bilateral: func() audit.BilateralInfo {
			return audit.BilateralInfo{
				ID:    c.BilateralTableID(""),
				Count: c.ServerBilateralTableCount(),
			}
		},
		Logger: c.logger,
	})
	return analyzer.Run()
}
