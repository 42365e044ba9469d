package vb

import "github.com/fcstate/migrator/codec"

// BalloonStatsState is the guest-reported memory-balloon statistics page.
// Ten counters; V_C adds sixteen more (see vc.BalloonStatsState).
type BalloonStatsState struct {
	SwapIn             *uint64
	SwapOut            *uint64
	MajorFaults        *uint64
	MinorFaults        *uint64
	FreeMemory         *uint64
	TotalMemory        *uint64
	AvailableMemory    *uint64
	DiskCaches         *uint64
	HugetlbAllocations *uint64
	HugetlbFailures    *uint64
}

func encodeOptU64(w *codec.Writer, v *uint64) {
	codec.WriteOptional(w, v, func(w *codec.Writer, v uint64) { w.WriteUint64(v) })
}

func decodeOptU64(r *codec.Reader) (*uint64, error) {
	return codec.ReadOptional(r, func(r *codec.Reader) (uint64, error) { return r.ReadUint64() })
}

func (b BalloonStatsState) Encode(w *codec.Writer) {
	for _, v := range []*uint64{
		b.SwapIn, b.SwapOut, b.MajorFaults, b.MinorFaults, b.FreeMemory,
		b.TotalMemory, b.AvailableMemory, b.DiskCaches, b.HugetlbAllocations, b.HugetlbFailures,
	} {
		encodeOptU64(w, v)
	}
}

func DecodeBalloonStatsState(r *codec.Reader) (BalloonStatsState, error) {
	vals := make([]*uint64, 10)

	for i := range vals {
		v, err := decodeOptU64(r)
		if err != nil {
			return BalloonStatsState{}, err
		}

		vals[i] = v
	}

	return BalloonStatsState{
		SwapIn: vals[0], SwapOut: vals[1], MajorFaults: vals[2], MinorFaults: vals[3],
		FreeMemory: vals[4], TotalMemory: vals[5], AvailableMemory: vals[6],
		DiskCaches: vals[7], HugetlbAllocations: vals[8], HugetlbFailures: vals[9],
	}, nil
}

// BalloonState is a virtio-balloon device's full saved state. No
// HintingState slot here; that arrives at V_C.
type BalloonState struct {
	StatsPollingIntervalS uint16
	StatsDescIndex        *uint16
	LatestStats           BalloonStatsState
	ConfigSpace           BalloonConfigSpaceState
	VirtioState           VirtioDeviceState
}

func (b BalloonState) Encode(w *codec.Writer) {
	w.WriteUint16(b.StatsPollingIntervalS)
	codec.WriteOptional(w, b.StatsDescIndex, func(w *codec.Writer, v uint16) { w.WriteUint16(v) })
	b.LatestStats.Encode(w)
	b.ConfigSpace.Encode(w)
	b.VirtioState.Encode(w)
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

	return BalloonState{
		StatsPollingIntervalS: interval, StatsDescIndex: descIndex, LatestStats: stats,
		ConfigSpace: cfg, VirtioState: virtio,
	}, nil
}
