package format

var names = map[Format]string{
	Yxfb: "yxfb", Bfyx: "bfyx", Byxf: "byxf", Fyxb: "fyxb",
	YxfbF16: "yxfb_f16", BfyxF16: "bfyx_f16", ByxfF16: "byxf_f16", FyxbF16: "fyxb_f16",
	ByxfB24: "byxf_b24", BsYxfBv24: "bs_yxf_bv24",
	Oiyx: "oiyx", Yxoi: "yxoi", Oyxi: "oyxi", Yxio: "yxio",
	OsIyxOsv16: "os_iyx_osv16", YxoiO4: "yxoi_o4", OsYxiSv16: "os_yxi_sv16", OyxiO16: "oyxi_o16",
	IoI13: "io_i13", IoI2: "io_i2",
	X: "x", Xb: "xb", Bx: "bx",
	BsXsXsv8Bsv8: "bs_xs_xsv8_bsv8", BsXBsv16: "bs_x_bsv16",
	Any: "any", FormatNum: "format_num",
}

// String renders the stable textual name of f, used when building dispatch
// keys (spec §4.6) and log fields.
func (f Format) String() string {
	if n, ok := names[f]; ok {
		return n
	}
	return "unknown"
}

// IsWeightOnly reports whether f is one of the weight-only layouts that
// require batch size 1 (spec §4.3).
func IsWeightOnly(f Format) bool {
	switch f {
	case Oiyx, Yxoi, Oyxi, Yxio, OsIyxOsv16, OsYxiSv16:
		return true
	default:
		return false
	}
}
