package scanning

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/image/tiff"
)

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	return img
}

func pngBytes() []byte {
	var buf bytes.Buffer
	Expect(png.Encode(&buf, testImage())).To(Succeed())
	return buf.Bytes()
}

func jpegBytes() []byte {
	var buf bytes.Buffer
	Expect(jpeg.Encode(&buf, testImage(), nil)).To(Succeed())
	return buf.Bytes()
}

var _ = Describe("prepareImageData", func() {
	It("passes PNG data through untouched", func() {
		data := pngBytes()
		out, mimeType, err := prepareImageData(data, "image/png")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(data))
		Expect(mimeType).To(Equal("image/png"))
	})

	It("converts JPEG to PNG", func() {
		out, mimeType, err := prepareImageData(jpegBytes(), "image/jpeg")
		Expect(err).NotTo(HaveOccurred())
		Expect(mimeType).To(Equal("image/png"))
		Expect(isPNG(out)).To(BeTrue())
	})

	It("converts TIFF to PNG", func() {
		var buf bytes.Buffer
		Expect(tiff.Encode(&buf, testImage(), nil)).To(Succeed())

		out, mimeType, err := prepareImageData(buf.Bytes(), "image/tiff")
		Expect(err).NotTo(HaveOccurred())
		Expect(mimeType).To(Equal("image/png"))
		Expect(isPNG(out)).To(BeTrue())

		decoded, err := png.Decode(bytes.NewReader(out))
		Expect(err).NotTo(HaveOccurred())
		Expect(decoded.Bounds()).To(Equal(testImage().Bounds()))
	})

	It("ignores a wrong declared content type", func() {
		out, _, err := prepareImageData(jpegBytes(), "application/octet-stream")
		Expect(err).NotTo(HaveOccurred())
		Expect(isPNG(out)).To(BeTrue())
	})

	It("rejects data that is not an image", func() {
		_, _, err := prepareImageData([]byte("definitely not an image"), "image/jpeg")
		Expect(err).To(MatchError(ContainSubstring("unsupported image format")))
	})

	It("rejects empty data", func() {
		_, _, err := prepareImageData(nil, "image/png")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("isHEICFormat", func() {
	It("detects the ftyp heic brand", func() {
		data := append([]byte{0, 0, 0, 24}, []byte("ftypheic0000")...)
		Expect(isHEICFormat(data)).To(BeTrue())
	})

	It("ignores short buffers", func() {
		Expect(isHEICFormat([]byte("ftyp"))).To(BeFalse())
	})

	It("ignores other brands", func() {
		data := append([]byte{0, 0, 0, 24}, []byte("ftypisom0000")...)
		Expect(isHEICFormat(data)).To(BeFalse())
	})
})
