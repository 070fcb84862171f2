package client

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tase2-protocol/tase2-go/pkg/connection"
	"github.com/tase2-protocol/tase2-go/pkg/mms"
	"github.com/tase2-protocol/tase2-go/pkg/model"
	"github.com/tase2-protocol/tase2-go/pkg/quality"
)

type write struct {
	domain string
	name   string
	value  mms.Value
}

// fakeConn is a scripted transport. Keys into the maps are
// "domain/name".
type fakeConn struct {
	mu            sync.Mutex
	connected     bool
	connectErr    error
	connectCalls  int
	domains       []string
	vars          map[string][]string
	dataSets      map[string][]string
	values        map[string]mms.Value
	readErr       map[string]error
	writeErr      map[string]error
	writes        []write
	dataSetValues map[string][]mms.Value
	identity      [3]string
	identityCalls int
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		vars:          map[string][]string{},
		dataSets:      map[string][]string{},
		values:        map[string]mms.Value{},
		readErr:       map[string]error{},
		writeErr:      map[string]error{},
		dataSetValues: map[string][]mms.Value{},
	}
}

func (f *fakeConn) Connect(host string, port int, timeout time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connectCalls++
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connected = true
	return nil
}

func (f *fakeConn) Disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
}

func (f *fakeConn) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeConn) GetDomainNames() ([]string, error) { return f.domains, nil }

func (f *fakeConn) GetDomainVariables(domain string) ([]string, error) {
	return f.vars[domain], nil
}

func (f *fakeConn) GetDataSetNames(domain string) ([]string, error) {
	return f.dataSets[domain], nil
}

func (f *fakeConn) ReadVariable(domain, name string) (mms.Value, error) {
	key := domain + "/" + name
	if err := f.readErr[key]; err != nil {
		return mms.Value{}, err
	}
	v, ok := f.values[key]
	if !ok {
		return mms.Value{}, fmt.Errorf("no such variable %s", key)
	}
	return v, nil
}

func (f *fakeConn) WriteVariable(domain, name string, value mms.Value) error {
	key := domain + "/" + name
	if err := f.writeErr[key]; err != nil {
		return err
	}
	f.mu.Lock()
	f.writes = append(f.writes, write{domain, name, value})
	f.mu.Unlock()
	return nil
}

func (f *fakeConn) ReadDataSetValues(domain, name string) ([]mms.Value, error) {
	key := domain + "/" + name
	if err := f.readErr[key]; err != nil {
		return nil, err
	}
	return f.dataSetValues[key], nil
}

func (f *fakeConn) GetServerIdentity() (string, string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.identityCalls++
	return f.identity[0], f.identity[1], f.identity[2], nil
}

func (f *fakeConn) wroteTo(domain, name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, w := range f.writes {
		if w.domain == domain && w.name == name {
			return true
		}
	}
	return false
}

func connected(t *testing.T, fc *fakeConn) *Client {
	t.Helper()
	c := New(fc)
	require.NoError(t, c.Connect("scada-a.example.net", 0))
	return c
}

func TestVCCAndDomainVariables(t *testing.T) {
	fc := newFakeConn()
	fc.domains = []string{"VCC", "ICC1"}
	fc.vars["VCC"] = []string{"Bilateral_Table_ID"}
	fc.vars["ICC1"] = []string{"Line1_MW", "Bus1_kV"}
	c := connected(t, fc)

	vcc, err := c.VCCVariables()
	require.NoError(t, err)
	assert.Equal(t, []string{"Bilateral_Table_ID"}, vcc)

	vars, err := c.DomainVariables("ICC1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Line1_MW", "Bus1_kV"}, vars)
}

func TestConnectAssignsConnectionID(t *testing.T) {
	fc := newFakeConn()
	c := connected(t, fc)

	first := c.ConnectionID()
	assert.NotEmpty(t, first)
	assert.True(t, c.IsConnected())

	require.NoError(t, c.Connect("scada-b.example.net", 102))
	assert.NotEqual(t, first, c.ConnectionID(), "reconnect starts a new association")
}

func TestConnectFailure(t *testing.T) {
	fc := newFakeConn()
	fc.connectErr = errors.New("refused")

	err := New(fc).Connect("scada-a.example.net", 102)
	var ce *ConnectError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "scada-a.example.net", ce.Host)
	assert.Equal(t, 102, ce.Port)
}

func TestOperationsRequireConnection(t *testing.T) {
	c := New(newFakeConn())

	_, err := c.ReadPoint("ICC1", "Voltage_A")
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.ErrorIs(t, c.WritePoint("ICC1", "Voltage_A", mms.NewFloat64(1)), ErrNotConnected)
	_, err = c.Select("ICC1", "Breaker1")
	assert.ErrorIs(t, err, ErrNotConnected)
	_, err = c.Domains(false)
	assert.ErrorIs(t, err, ErrNotConnected)
	_, err = c.TransferSets("ICC1")
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestReadPointDecodes(t *testing.T) {
	fc := newFakeConn()
	fc.values["ICC1/Voltage_A"] = mms.NewFloat64(230.5)
	fc.values["ICC1/Power_B"] = mms.NewStructure(mms.NewFloat64(100.0), mms.NewInt64(8))
	c := connected(t, fc)

	pv, err := c.ReadPoint("ICC1", "Voltage_A")
	require.NoError(t, err)
	assert.Equal(t, 230.5, pv.Value)
	assert.True(t, pv.IsValid())

	pv, err = c.ReadPoint("ICC1", "Power_B")
	require.NoError(t, err)
	assert.Equal(t, 100.0, pv.Value)
	assert.Equal(t, quality.ValiditySuspect, pv.Quality.Validity)

	assert.Equal(t, uint64(2), c.Statistics().Reads)
}

func TestReadPointFailure(t *testing.T) {
	fc := newFakeConn()
	fc.readErr["ICC1/Missing"] = errors.New("object non-existent")
	c := connected(t, fc)

	_, err := c.ReadPoint("ICC1", "Missing")
	var re *ReadError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "ICC1", re.Domain)
	assert.Equal(t, uint64(1), c.Statistics().Errors)
}

func TestReadPointsDegradesPerPoint(t *testing.T) {
	fc := newFakeConn()
	fc.values["ICC1/Good"] = mms.NewFloat64(1.0)
	fc.readErr["ICC1/Bad"] = errors.New("access denied")
	c := connected(t, fc)

	points, err := c.ReadPoints("ICC1", []string{"Good", "Bad"})
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.True(t, points[0].IsValid())
	assert.False(t, points[1].IsValid())
	assert.Equal(t, "Bad", points[1].Name)
	assert.Nil(t, points[1].Value)
}

func TestWritePoint(t *testing.T) {
	fc := newFakeConn()
	c := connected(t, fc)

	require.NoError(t, c.WritePoint("ICC1", "Setpoint_1", mms.NewFloat64(50.0)))
	assert.True(t, fc.wroteTo("ICC1", "Setpoint_1"))
	assert.Equal(t, uint64(1), c.Statistics().Writes)

	fc.writeErr["ICC1/Locked"] = errors.New("access denied")
	err := c.WritePoint("ICC1", "Locked", mms.NewFloat64(1))
	var we *WriteError
	assert.ErrorAs(t, err, &we)
}

func TestDataSetValues(t *testing.T) {
	fc := newFakeConn()
	fc.dataSetValues["ICC1/DS_Analogs"] = []mms.Value{
		mms.NewFloat64(1.0),
		mms.NewStructure(mms.NewFloat64(2.0), mms.NewInt64(0)),
	}
	c := connected(t, fc)

	points, err := c.DataSetValues("ICC1", "DS_Analogs")
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, "DS_Analogs[0]", points[0].Name)
	assert.True(t, points[1].IsValid())
}

func TestSelectThenOperate(t *testing.T) {
	fc := newFakeConn()
	c := connected(t, fc)

	sel, err := c.Select("ICC1", "Breaker1")
	require.NoError(t, err)
	assert.Equal(t, "Breaker1$SBO", sel.Candidate)

	require.NoError(t, c.Operate("ICC1", "Breaker1", mms.NewInt64(1)))
	assert.True(t, fc.wroteTo("ICC1", "Breaker1"))
	assert.Equal(t, uint64(2), c.Statistics().ControlOps)
}

func TestSendCommandOperatesDirectly(t *testing.T) {
	fc := newFakeConn()
	c := connected(t, fc)

	require.NoError(t, c.SendCommand("ICC1", "Breaker1", 1))
	require.NoError(t, c.SendSetpointReal("ICC1", "AGC_Setpoint", 61.2))
	assert.True(t, fc.wroteTo("ICC1", "AGC_Setpoint"))
}

func TestSetTagCandidateFold(t *testing.T) {
	fc := newFakeConn()
	fc.writeErr["ICC1/Breaker1_TAG"] = errors.New("object non-existent")
	fc.writeErr["ICC1/Breaker1$Tag"] = errors.New("object non-existent")
	c := connected(t, fc)

	require.NoError(t, c.SetTag("ICC1", "Breaker1", model.TagOpenAndCloseInhibit, "line maintenance"))
	assert.True(t, fc.wroteTo("ICC1", "Breaker1_Tag"))
	assert.True(t, fc.wroteTo("ICC1", "Breaker1$TagReason"))
}

func TestSetTagAllCandidatesFail(t *testing.T) {
	fc := newFakeConn()
	for _, pattern := range tagCandidates {
		fc.writeErr["ICC1/"+fmt.Sprintf(pattern, "Breaker1")] = errors.New("access denied")
	}
	c := connected(t, fc)

	err := c.SetTag("ICC1", "Breaker1", model.TagNone, "")
	var te *TagError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "Breaker1", te.Device)
}

func TestTagReadsCurrentState(t *testing.T) {
	fc := newFakeConn()
	fc.values["ICC1/Breaker1_TAG"] = mms.NewInt64(2)
	fc.values["ICC1/Breaker1$TagReason"] = mms.NewVisibleString("storm hold")
	c := connected(t, fc)

	state, err := c.Tag("ICC1", "Breaker1")
	require.NoError(t, err)
	assert.Equal(t, model.TagCloseOnlyInhibit, state.Tag)
	assert.Equal(t, "storm hold", state.Reason)
}

func TestTestControlAccessCancelsSelect(t *testing.T) {
	fc := newFakeConn()
	c := connected(t, fc)

	assert.True(t, c.TestControlAccess("ICC1", "Breaker1"))
	assert.Equal(t, "IDLE", c.SelectState("ICC1", "Breaker1").String())
}

func TestConsecutiveErrorsFireCallbackOnce(t *testing.T) {
	fc := newFakeConn()
	fc.readErr["ICC1/Bad"] = errors.New("timeout")
	c := NewWithConfig(fc, Config{MaxConsecutiveErrors: 3})
	require.NoError(t, c.Connect("scada-a.example.net", 102))

	var fired int
	c.OnConnectionLost(func(error) { fired++ })

	for i := 0; i < 5; i++ {
		_, _ = c.ReadPoint("ICC1", "Bad")
	}
	assert.Equal(t, 1, fired)
}

func TestSuccessResetsConsecutiveErrors(t *testing.T) {
	fc := newFakeConn()
	fc.readErr["ICC1/Bad"] = errors.New("timeout")
	fc.values["ICC1/Good"] = mms.NewFloat64(1.0)
	c := NewWithConfig(fc, Config{MaxConsecutiveErrors: 3})
	require.NoError(t, c.Connect("scada-a.example.net", 102))

	var fired int
	c.OnConnectionLost(func(error) { fired++ })

	for i := 0; i < 10; i++ {
		_, _ = c.ReadPoint("ICC1", "Bad")
		_, _ = c.ReadPoint("ICC1", "Good")
	}
	assert.Zero(t, fired)
}

func TestServerInfoCached(t *testing.T) {
	fc := newFakeConn()
	fc.identity = [3]string{"ACME Grid", "ICCP-9000", "3.4.1"}
	c := connected(t, fc)

	info, err := c.ServerInfo()
	require.NoError(t, err)
	assert.Equal(t, "ACME Grid", info.Vendor)

	_, err = c.ServerInfo()
	require.NoError(t, err)
	assert.Equal(t, 1, fc.identityCalls)

	// Reconnect clears the cache.
	require.NoError(t, c.Connect("scada-a.example.net", 102))
	_, err = c.ServerInfo()
	require.NoError(t, err)
	assert.Equal(t, 2, fc.identityCalls)
}

func TestBilateralTableIDPrefersICC(t *testing.T) {
	fc := newFakeConn()
	fc.domains = []string{"VCC", "ICC1"}
	fc.vars["VCC"] = []string{"Bilateral_Table_ID"}
	fc.vars["ICC1"] = []string{"Bilateral_Table_ID"}
	fc.values["VCC/Bilateral_Table_ID"] = mms.NewVisibleString("BLT-VCC")
	fc.values["ICC1/Bilateral_Table_ID"] = mms.NewVisibleString("BLT-ICC1")
	c := connected(t, fc)

	assert.Equal(t, "BLT-ICC1", c.BilateralTableID(""))
}

func TestServerBilateralTableCountVCCOnly(t *testing.T) {
	fc := newFakeConn()
	fc.domains = []string{"ICC1", "VCC"}
	fc.vars["ICC1"] = []string{"Server_Bilateral_Table_Count"}
	fc.vars["VCC"] = []string{"Server_Bilateral_Table_Count"}
	fc.values["ICC1/Server_Bilateral_Table_Count"] = mms.NewInt64(9)
	fc.values["VCC/Server_Bilateral_Table_Count"] = mms.NewInt64(3)
	c := connected(t, fc)

	assert.Equal(t, 3, c.ServerBilateralTableCount())
}

func TestSupportedFeaturesBitstring(t *testing.T) {
	fc := newFakeConn()
	fc.domains = []string{"VCC"}
	fc.vars["VCC"] = []string{"Supported_Features"}
	// Blocks 1, 2 and 5 set, MSB first.
	fc.values["VCC/Supported_Features"] = mms.NewBitString([]byte{0xC8, 0x00}, 9)
	c := connected(t, fc)

	blocks, err := c.SupportedFeatures()
	require.NoError(t, err)
	assert.Equal(t, []model.ConformanceBlock{
		model.BlockBasic, model.BlockRBE, model.BlockControl,
	}, blocks)
}

func TestSupportedFeaturesIntegerForm(t *testing.T) {
	fc := newFakeConn()
	fc.domains = []string{"VCC"}
	fc.vars["VCC"] = []string{"SupportedFeatures"}
	fc.values["VCC/SupportedFeatures"] = mms.NewInt64(0x80 | 0x40)
	c := connected(t, fc)

	blocks, err := c.SupportedFeatures()
	require.NoError(t, err)
	assert.Equal(t, []model.ConformanceBlock{model.BlockBasic, model.BlockRBE}, blocks)
}

func TestEnumerateDataPoints(t *testing.T) {
	fc := newFakeConn()
	fc.domains = []string{"ICC1"}
	fc.vars["ICC1"] = []string{"Good", "Bad", "AlsoGood"}
	fc.values["ICC1/Good"] = mms.NewFloat64(1.0)
	fc.values["ICC1/AlsoGood"] = mms.NewFloat64(2.0)
	fc.readErr["ICC1/Bad"] = errors.New("access denied")
	c := connected(t, fc)

	points, err := c.EnumerateDataPoints(2)
	require.NoError(t, err)
	require.Len(t, points, 2, "per-domain cap applies")
	assert.True(t, points[0].IsValid())
	assert.False(t, points[1].IsValid(), "unreadable point becomes a placeholder")
}

func TestConnectFailover(t *testing.T) {
	fc := newFakeConn()
	fc.connectErr = errors.New("refused")
	c := New(fc)

	servers := []connection.ServerAddress{
		{Host: "primary", Port: 102, Priority: connection.PriorityPrimary},
		{Host: "backup", Port: 102, Priority: connection.PriorityBackup},
	}
	_, err := c.ConnectFailover(servers)
	require.Error(t, err)

	fc.connectErr = nil
	server, err := c.ConnectFailover(nil)
	require.NoError(t, err)
	assert.Equal(t, "primary", server.Host)
	assert.True(t, c.IsConnected())
	assert.NotEmpty(t, c.ConnectionID())
}

func TestDisconnectIdempotent(t *testing.T) {
	fc := newFakeConn()
	c := connected(t, fc)

	c.Disconnect()
	c.Disconnect()
	assert.False(t, c.IsConnected())

	stats := c.Statistics()
	assert.False(t, stats.DisconnectedAt.IsZero())
}

func TestValidatePointName(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{"Voltage_A", true},
		{"P1", true},
		{"", false},
		{"1Voltage", false},
		{"Volt-age", false},
		{"This_Name_Is_Much_Longer_Than_The_Limit_Allows", false},
	}
	for _, tt := range tests {
		err := ValidatePointName(tt.name)
		if tt.valid {
			assert.NoError(t, err, tt.name)
		} else {
			assert.Error(t, err, tt.name)
		}
	}
}
