// Package genietest provides a simulated ViSi-Genie display for tests and
// for running tools without hardware.
//
//	sim := genietest.New()
//	sim.SetValue(protocol.ObjSlider, 0, 42)
//	d, _ := genie.Attach(ctx, sim.Port())
//	v, _ := d.ReadObject(ctx, protocol.ObjSlider, 0) // 42
package genietest
