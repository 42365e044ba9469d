package vb

import "github.com/fcstate/migrator/codec"

// ACPIDeviceManagerState is the x86_64 ACPI device manager's saved state.
// VMGenID is still optional here; it becomes mandatory at V_C (see
// vc.ACPIDeviceManagerState and convert.ErrMissingVMGenID).
// Top-level MicrovmState field at this version; folded into DevicesState
// at V_C.
type ACPIDeviceManagerState struct {
	VMGenID *VMGenIDState
}

func (a ACPIDeviceManagerState) Encode(w *codec.Writer) {
	codec.WriteOptional(w, a.VMGenID, func(w *codec.Writer, v VMGenIDState) { v.Encode(w) })
}

func DecodeACPIDeviceManagerState(r *codec.Reader) (ACPIDeviceManagerState, error) {
	vmgenid, err := codec.ReadOptional(r, DecodeVMGenIDState)
	if err != nil {
		return ACPIDeviceManagerState{}, err
	}

	return ACPIDeviceManagerState{VMGenID: vmgenid}, nil
}
