package vc

import "github.com/fcstate/migrator/codec"

// BalloonStatsState is the guest-reported memory-balloon statistics page.
// V_C adds sixteen new optional reclaim/compaction counters, all nil on a
// snapshot reconstructed from V_A or V_B (neither version's guest driver
// reported them).
type BalloonStatsState struct {
	SwapIn          *uint64
	SwapOut         *uint64
	MajorFault      *uint64
	MinorFault      *uint64
	FreeMemory      *uint64
	TotalMemory     *uint64
	AvailableMemory *uint64
	DiskCaches      *uint64
	HugetlbAlloc    *uint64
	HugetlbFail     *uint64

	OOMKill         *uint64
	AllocStall      *uint64
	AsyncScan       *uint64
	DirectScan      *uint64
	AsyncReclaim    *uint64
	DirectReclaim   *uint64
	AsyncPgfault    *uint64
	DirectPgfault   *uint64
	AsyncRefault    *uint64
	DirectRefault   *uint64
	AsyncPgsteal    *uint64
	DirectPgsteal   *uint64
	AsyncPgdemote   *uint64
	DirectPgdemote  *uint64
	CompactSuccess  *uint64
	CompactFail     *uint64
}

func encodeOptU64(w *codec.Writer, v *uint64) {
	codec.WriteOptional(w, v, func(w *codec.Writer, v uint64) { w.WriteUint64(v) })
}

func decodeOptU64(r *codec.Reader) (*uint64, error) {
	return codec.ReadOptional(r, func(r *codec.Reader) (uint64, error) { return r.ReadUint64() })
}

func (b BalloonStatsState) Encode(w *codec.Writer) {
	for _, v := range []*uint64{
		b.SwapIn, b.SwapOut, b.MajorFault, b.MinorFault, b.FreeMemory,
		b.TotalMemory, b.AvailableMemory, b.DiskCaches, b.HugetlbAlloc, b.HugetlbFail,
		b.OOMKill, b.AllocStall, b.AsyncScan, b.DirectScan, b.AsyncReclaim,
		b.DirectReclaim, b.AsyncPgfault, b.DirectPgfault, b.AsyncRefault, b.DirectRefault,
		b.AsyncPgsteal, b.DirectPgsteal, b.AsyncPgdemote, b.DirectPgdemote,
		b.CompactSuccess, b.CompactFail,
	} {
		encodeOptU64(w, v)
	}
}

func DecodeBalloonStatsState(r *codec.Reader) (BalloonStatsState, error) {
	vals := make([]*uint64, 26)

	for i := range vals {
		v, err := decodeOptU64(r)
		if err != nil {
			return BalloonStatsState{}, err
		}

		vals[i] = v
	}

	return BalloonStatsState{
		SwapIn: vals[0], SwapOut: vals[1], MajorFault: vals[2], MinorFault: vals[3],
		FreeMemory: vals[4], TotalMemory: vals[5], AvailableMemory: vals[6],
		DiskCaches: vals[7], HugetlbAlloc: vals[8], HugetlbFail: vals[9],
		OOMKill: vals[10], AllocStall: vals[11], AsyncScan: vals[12], DirectScan: vals[13],
		AsyncReclaim: vals[14], DirectReclaim: vals[15], AsyncPgfault: vals[16],
		DirectPgfault: vals[17], AsyncRefault: vals[18], DirectRefault: vals[19],
		AsyncPgsteal: vals[20], DirectPgsteal: vals[21], AsyncPgdemote: vals[22],
		DirectPgdemote: vals[23], CompactSuccess: vals[24], CompactFail: vals[25],
	}, nil
}

// HintingState is the free-page-hinting protocol state between host and
// guest, new at V_C. AcknowledgeOnFinish defaults to true when synthesized
// from an older snapshot (see package convert), matching the field's
// documented default.
type HintingState struct {
	HostCmd             uint32
	LastCmdID           uint32
	GuestCmd            *uint32
	AcknowledgeOnFinish bool
}

func (h HintingState) Encode(w *codec.Writer) {
	w.WriteUint32(h.HostCmd)
	w.WriteUint32(h.LastCmdID)
	codec.WriteOptional(w, h.GuestCmd, func(w *codec.Writer, v uint32) { w.WriteUint32(v) })
	w.WriteBool(h.AcknowledgeOnFinish)
}

func DecodeHintingState(r *codec.Reader) (HintingState, error) {
	host, err := r.ReadUint32()
	if err != nil {
		return HintingState{}, err
	}

	last, err := r.ReadUint32()
	if err != nil {
		return HintingState{}, err
	}

	guest, err := codec.ReadOptional(r, func(r *codec.Reader) (uint32, error) { return r.ReadUint32() })
	if err != nil {
		return HintingState{}, err
	}

	ack, err := r.ReadBool()
	if err != nil {
		return HintingState{}, err
	}

	return HintingState{HostCmd: host, LastCmdID: last, GuestCmd: guest, AcknowledgeOnFinish: ack}, nil
}

// BalloonState is a virtio-balloon device's full saved state. V_C adds
// Hinting (see HintingState); a snapshot migrated from V_A/V_B gets the
// default HintingState that package convert synthesizes.
type BalloonState struct {
	StatsPollingIntervalS uint16
	StatsDescIndex        *uint16
	Stats                 BalloonStatsState
	ConfigSpace           BalloonConfigSpaceState
	VirtioState           VirtioDeviceState
	Hinting               *HintingState
}

func (b BalloonState) Encode(w *codec.Writer) {
	w.WriteUint16(b.StatsPollingIntervalS)
	codec.WriteOptional(w, b.StatsDescIndex, func(w *codec.Writer, v uint16) { w.WriteUint16(v) })
	b.Stats.Encode(w)
	b.ConfigSpace.Encode(w)
	b.VirtioState.Encode(w)
	codec.WriteOptional(w, b.Hinting, func(w *codec.Writer, h HintingState) { h.Encode(w) })
}

func DecodeBalloonState(r *codec.Reader) (BalloonState, error) {
	interval, err := r.ReadUint16()
	if err != nil {
		return BalloonState{}, err
	}

	descIndex, err := codec.ReadOptional(r, func(r *codec.Reader) (uint16, error) { return r.ReadUint16() })
	if err != nil {
		return BalloonState{}, err
	}

	stats, err := DecodeBalloonStatsState(r)
	if err != nil {
		return BalloonState{}, err
	}

	cfg, err := DecodeBalloonConfigSpaceState(r)
	if err != nil {
		return BalloonState{}, err
	}

	virtio, err := DecodeVirtioDeviceState(r)
	if err != nil {
		return BalloonState{}, err
	}

	hinting, err := codec.ReadOptional(r, DecodeHintingState)
	if err != nil {
		return BalloonState{}, err
	}

	return BalloonState{
		StatsPollingIntervalS: interval, StatsDescIndex: descIndex, Stats: stats,
		ConfigSpace: cfg, VirtioState: virtio, Hinting: hinting,
	}, nil
}
