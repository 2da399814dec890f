package probe

import (
	"math"

	"github.com/Mojinnn/PBL3-project/internal/domain"
)

// PingStats summarizes one batch of echo requests.
type PingStats struct {
	Latency     domain.Optional // mean RTT in ms
	Jitter      domain.Optional // mean |RTT[i] - RTT[i-1]| in ms
	LossPercent float64
}

// LatencyStats reduces the RTTs (ms) of the replies received out of sent
// requests. Without replies latency and jitter are unavailable. A single
// reply has zero jitter. Loss is rounded to two decimals.
func LatencyStats(rtts []float64, sent int) PingStats {
	var st PingStats
	received := len(rtts)
	if sent > 0 {
		loss := math.Max(0, float64(sent-received)/float64(sent)*100)
		st.LossPercent = math.Round(loss*100) / 100
	}
	if received == 0 {
		return st
	}

	var sum, diffs float64
	for i, rtt := range rtts {
		sum += rtt
		if i > 0 {
			diffs += math.Abs(rtt - rtts[i-1])
		}
	}
	st.Latency = domain.Some(sum / float64(received))
	st.Jitter = domain.Some(0)
	if received > 1 {
		st.Jitter = domain.Some(diffs / float64(received-1))
	}
	return st
}

// Protocol is the class a captured packet is counted under.
type Protocol uint8

const (
	ProtoOther Protocol = iota
	ProtoTCP
	ProtoUDP
	ProtoICMP
)

// Packet is the decoded summary of one captured frame.
type Packet struct {
	Length int
	TCP    bool
	UDP    bool
	ICMP   bool
	ICMPv6 bool
}

// Classify picks the first matching layer: TCP, then UDP, then ICMP or
// ICMPv6, else other.
func Classify(p Packet) Protocol {
	switch {
	case p.TCP:
		return ProtoTCP
	case p.UDP:
		return ProtoUDP
	case p.ICMP, p.ICMPv6:
		return ProtoICMP
	}
	return ProtoOther
}

// ProtocolCounts tallies packets per class and sums their lengths.
func ProtocolCounts(pkts []Packet) domain.ProtocolCounts {
	var c domain.ProtocolCounts
	for _, p := range pkts {
		c.TotalBytes += int64(p.Length)
		switch Classify(p) {
		case ProtoTCP:
			c.TCP++
		case ProtoUDP:
			c.UDP++
		case ProtoICMP:
			c.ICMP++
		default:
			c.Other++
		}
	}
	return c
}
