package lossy

// SolidFrameBitstream exposes the synthetic key-frame builder to the
// black-box tests in this directory, which exercise the full WebP
// pipeline and therefore cannot live inside this package.
func SolidFrameBitstream(width, height int) []byte {
	return buildSolidFrame(width, height)
}
