package simulator

import (
	"time"

	"github.com/tase2-protocol/tase2-go/pkg/mms"
)

// Demo builds a server with a small but representative object model:
// a VCC domain carrying the server capabilities and one ICC domain
// with telemetry, a controllable breaker and a DS transfer set.
func Demo() *Server {
	s := New()
	s.SetIdentity("tase2-go", "demo-server", "1.0")
	now := time.Now().Add(-time.Minute)

	s.AddDomain("VCC")
	s.AddPoint("VCC", "Bilateral_Table_ID", mms.NewVisibleString("BLT-DEMO-1"))
	s.AddPoint("VCC", "Server_Bilateral_Table_Count", mms.NewInt64(1))
	// Blocks 1, 2, 4 and 5.
	s.AddPoint("VCC", "Supported_Features", mms.NewBitString([]byte{0xD8, 0x00}, 9))
	s.AddPoint("VCC", "TASE2_Version", mms.NewVisibleString("2000-08"))
	s.AddPoint("VCC", "IM_Transfer_Set_Status", mms.NewBool(false))

	s.AddDomain("ICC1")
	s.AddPoint("ICC1", "Line1_MW", timestamped(345.2, 0, now))
	s.AddPoint("ICC1", "Line1_MVAR", timestamped(48.7, 0, now))
	s.AddPoint("ICC1", "Bus1_kV", mms.NewFloat64(229.8))
	s.AddPoint("ICC1", "Frequency", timestamped(50.02, 0, now))
	s.AddPoint("ICC1", "Xfmr1_Temp", timestamped(61.5, 8, now)) // suspect

	s.AddPoint("ICC1", "Breaker1", mms.NewInt64(1))
	s.AddPoint("ICC1", "Breaker1$SBO", mms.NewInt64(0))
	s.AddPoint("ICC1", "Breaker1_TAG", mms.NewInt64(0))
	s.AddPoint("ICC1", "Breaker1$TagReason", mms.NewVisibleString(""))

	s.AddPoint("ICC1", "DSTransferSet_Status", mms.NewBool(false))
	s.AddPoint("ICC1", "DSTS_1_Interval", mms.NewInt64(10))
	s.AddPoint("ICC1", "DSTS_1_BufferTime", mms.NewInt64(2))
	s.AddPoint("ICC1", "DSTS_1_RBE", mms.NewBool(true))
	s.AddPoint("ICC1", "DSTS_1_DSConditions", mms.NewInt64(5))
	s.AddPoint("ICC1", "Transfer_Report_ACK", mms.NewInt64(0))
	s.AddDataSet("ICC1", "DSTS_1", "Line1_MW", "Line1_MVAR", "Bus1_kV")

	return s
}

// timestamped builds a structured point value with quality and a UTC
// timestamp element.
func timestamped(value float64, qual int64, at time.Time) mms.Value {
	return mms.NewStructure(
		mms.NewFloat64(value),
		mms.NewInt64(qual),
		mms.NewUTCTime(at),
	)
}
