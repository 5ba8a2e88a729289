package vescmsg

// Message ids, verified against original_source/messages.py's msg_id enum.
const (
	IDFWVersion            byte = 0
	IDJumpToBootloader     byte = 1
	IDEraseNewApp          byte = 2
	IDWriteNewAppData      byte = 3
	IDGetValues            byte = 4
	IDSetDuty              byte = 5
	IDSetCurrent           byte = 6
	IDSetCurrentBrake      byte = 7
	IDSetRPM               byte = 8
	IDSetPos               byte = 9
	IDSetDetect            byte = 10
	IDSetServoPos          byte = 11
	IDSetMCConf            byte = 12
	IDGetMCConf            byte = 13
	IDGetMCConfDefault     byte = 14
	IDSetAppConf           byte = 15
	IDGetAppConf           byte = 16
	IDGetAppConfDefault    byte = 17
	IDSamplePrint          byte = 18
	IDTerminalCmd          byte = 19
	IDPrint                byte = 20
	IDRotorPosition        byte = 21
	IDExperimentSample     byte = 22
	IDDetectMotorParam     byte = 23
	IDDetectMotorRL        byte = 24
	IDDetectMotorFlux      byte = 25
	IDDetectEncoder        byte = 26
	IDDetectHallFOC        byte = 27
	IDReboot               byte = 28
	IDAlive                byte = 29
	IDGetDecodedPPM        byte = 30
	IDGetDecodedADC        byte = 31
	IDGetDecodedChuk       byte = 32
	IDForwardCAN           byte = 33
	IDSetChuckData         byte = 34
	IDCustomAppData        byte = 35
	IDWriteNewAppDataLZO   byte = 36
)

// Rotor position display modes, set via set_detect (id=10). Mirrors the
// firmware's DISP_POS_MODE enum.
const (
	DispPosModeNone       = 0
	DispPosModeEncoder    = 3
	DispPosModePIDPos     = 4
	DispPosModePIDPosErr  = 5
)

func opaque(name string) Field {
	return Field{Name: name, Kind: KindString, Scalar: -1}
}

func ascii(name string) Field {
	return Field{Name: name, Kind: KindString, Scalar: 0}
}

func init() {
	MustRegister(Schema{
		ID: IDFWVersion,
		Recv: []Field{
			{Name: "comm_fw_version", Kind: KindU8},
			{Name: "fw_version_major", Kind: KindU8},
			{Name: "fw_version_minor", Kind: KindU8},
		},
	})

	MustRegister(Schema{ID: IDJumpToBootloader, HeaderOnly: true})

	MustRegister(Schema{
		ID:   IDEraseNewApp,
		Send: []Field{{Name: "size", Kind: KindU32}},
		Recv: []Field{{Name: "erase_new_app_result", Kind: KindByte}},
	})

	MustRegister(Schema{
		ID:   IDWriteNewAppData,
		Send: []Field{{Name: "offset", Kind: KindU32}, opaque("data")},
		Recv: []Field{{Name: "write_new_app_data_result", Kind: KindByte}},
	})

	MustRegister(Schema{
		ID: IDGetValues,
		Recv: []Field{
			{Name: "temp_fet", Kind: KindI16, Scalar: 10},
			{Name: "temp_motor", Kind: KindI16, Scalar: 10},
			{Name: "avg_motor_current", Kind: KindI32, Scalar: 100},
			{Name: "avg_input_current", Kind: KindI32, Scalar: 100},
			{Name: "avg_id", Kind: KindI32, Scalar: 100},
			{Name: "avg_iq", Kind: KindI32, Scalar: 100},
			{Name: "duty_cycle_now", Kind: KindI16, Scalar: 1000},
			{Name: "rpm", Kind: KindI32},
			{Name: "v_in", Kind: KindI16, Scalar: 10},
			{Name: "amp_hours", Kind: KindI32, Scalar: 10000},
			{Name: "amp_hours_charged", Kind: KindI32, Scalar: 10000},
			{Name: "watt_hours", Kind: KindI32, Scalar: 10000},
			{Name: "watt_hours_charged", Kind: KindI32, Scalar: 10000},
			{Name: "tachometer", Kind: KindI32},
			{Name: "tachometer_abs", Kind: KindI32},
			{Name: "mc_fault_code", Kind: KindByte},
			{Name: "pid_pos_now", Kind: KindI32, Scalar: 1000000},
			{Name: "app_controller_id", Kind: KindByte},
			{Name: "time_ms", Kind: KindI32},
		},
	})

	MustRegister(Schema{ID: IDSetDuty, Send: []Field{{Name: "duty_cycle", Kind: KindI32, Scalar: 100000}}})
	MustRegister(Schema{ID: IDSetCurrent, Send: []Field{{Name: "current", Kind: KindI32, Scalar: 1000}}})
	MustRegister(Schema{ID: IDSetCurrentBrake, Send: []Field{{Name: "current_brake", Kind: KindI32, Scalar: 1000}}})
	MustRegister(Schema{ID: IDSetRPM, Send: []Field{{Name: "rpm", Kind: KindI32}}})
	MustRegister(Schema{ID: IDSetPos, Send: []Field{{Name: "pos", Kind: KindI32, Scalar: 1000000}}})
	MustRegister(Schema{ID: IDSetDetect, Send: []Field{{Name: "rotor_position_mode", Kind: KindU8}}})
	MustRegister(Schema{ID: IDSetServoPos, Send: []Field{{Name: "servo_pos", Kind: KindI16, Scalar: 1000}}})

	MustRegister(Schema{
		ID:   IDSetMCConf,
		Send: []Field{opaque("mcconf")},
		Recv: []Field{{Name: "set_mcconf_result", Kind: KindByte}},
	})
	MustRegister(Schema{ID: IDGetMCConf, Recv: []Field{opaque("mcconf")}})
	MustRegister(Schema{ID: IDGetMCConfDefault, Recv: []Field{opaque("mcconf")}})

	MustRegister(Schema{
		ID:   IDSetAppConf,
		Send: []Field{opaque("appconf")},
		Recv: []Field{{Name: "set_appconf_result", Kind: KindByte}},
	})
	MustRegister(Schema{ID: IDGetAppConf, Recv: []Field{opaque("appconf")}})
	MustRegister(Schema{ID: IDGetAppConfDefault, Recv: []Field{opaque("appconf")}})

	// sample_print's exact field layout isn't present in original_source
	// (PyVESC never implemented it); treated as an opaque passthrough
	// command until firmware documentation for it is available.
	MustRegister(Schema{
		ID:   IDSamplePrint,
		Send: []Field{opaque("request")},
		Recv: []Field{opaque("samples")},
	})

	MustRegister(Schema{
		ID:   IDTerminalCmd,
		Send: []Field{ascii("cmd")},
		Recv: []Field{ascii("output")},
	})

	MustRegister(Schema{ID: IDPrint, Recv: []Field{ascii("text")}})

	MustRegister(Schema{ID: IDRotorPosition, Recv: []Field{{Name: "rotor_pos", Kind: KindI32, Scalar: 100000}}})

	MustRegister(Schema{ID: IDExperimentSample, Recv: []Field{opaque("data")}})

	// The detect_* motor-parameter commands are not implemented in
	// original_source either; they're registered as opaque request/response
	// blobs so a caller can still drive them, without inventing a field
	// layout this codebase can't verify against firmware.
	MustRegister(Schema{ID: IDDetectMotorParam, Send: []Field{opaque("request")}, Recv: []Field{opaque("result")}})
	MustRegister(Schema{ID: IDDetectMotorRL, Send: []Field{opaque("request")}, Recv: []Field{opaque("result")}})
	MustRegister(Schema{ID: IDDetectMotorFlux, Send: []Field{opaque("request")}, Recv: []Field{opaque("result")}})
	MustRegister(Schema{ID: IDDetectEncoder, Send: []Field{opaque("request")}, Recv: []Field{opaque("result")}})
	MustRegister(Schema{ID: IDDetectHallFOC, Send: []Field{opaque("request")}, Recv: []Field{opaque("result")}})

	MustRegister(Schema{ID: IDReboot, HeaderOnly: true})
	MustRegister(Schema{ID: IDAlive, HeaderOnly: true})

	MustRegister(Schema{
		ID: IDGetDecodedPPM,
		Recv: []Field{
			{Name: "ppm_value", Kind: KindFloat32Vesc},
			{Name: "ppm_last_len", Kind: KindFloat32Vesc},
		},
	})
	MustRegister(Schema{
		ID: IDGetDecodedADC,
		Recv: []Field{
			{Name: "adc_value", Kind: KindFloat32Vesc},
			{Name: "adc_voltage", Kind: KindFloat32Vesc},
			{Name: "adc_value2", Kind: KindFloat32Vesc},
			{Name: "adc_voltage2", Kind: KindFloat32Vesc},
		},
	})
	MustRegister(Schema{ID: IDGetDecodedChuk, Recv: []Field{{Name: "chuk_value", Kind: KindFloat32Vesc}}})

	MustRegister(Schema{
		ID: IDSetChuckData,
		Send: []Field{
			{Name: "js_x", Kind: KindU8},
			{Name: "js_y", Kind: KindU8},
			{Name: "bt_c", Kind: KindBool},
			{Name: "bt_z", Kind: KindBool},
			{Name: "acc_x", Kind: KindU16},
			{Name: "acc_y", Kind: KindU16},
			{Name: "acc_z", Kind: KindU16},
		},
	})

	MustRegister(Schema{ID: IDCustomAppData, Send: []Field{opaque("data")}})

	MustRegister(Schema{
		ID:   IDWriteNewAppDataLZO,
		Send: []Field{{Name: "offset", Kind: KindU32}, opaque("data")},
		Recv: []Field{{Name: "write_new_app_data_result", Kind: KindByte}},
	})
}
