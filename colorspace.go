package yuv

// BT.601 limited-range conversion constants. The offsets fold the 16/255
// luma and 128/255 chroma biases into a single term per channel.
const (
	bt601LumaScale = 1.1643828125

	bt601RCr     = 1.59602734375
	bt601ROffset = 0.87078515625

	bt601GCb     = 0.39176171875
	bt601GCr     = 0.81296875
	bt601GOffset = 0.52959375

	bt601BCb     = 2.017234375
	bt601BOffset = 1.081390625
)

// ConvertBT601 converts normalized Y, Cb, Cr samples to normalized RGB.
// Results are not clamped; the surface clamps on store.
func ConvertBT601(y, cb, cr float32) (r, g, b float32) {
	yMul := y * bt601LumaScale
	r = yMul + bt601RCr*cr - bt601ROffset
	g = yMul - bt601GCb*cb - bt601GCr*cr + bt601GOffset
	b = yMul + bt601BCb*cb - bt601BOffset
	return r, g, b
}
