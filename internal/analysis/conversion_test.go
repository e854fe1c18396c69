package analysis

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func sampleImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 60), G: uint8(y * 60), B: 120, A: 255})
		}
	}
	return img
}

func sampleJPEG() []byte {
	var buf bytes.Buffer
	Expect(jpeg.Encode(&buf, sampleImage(), nil)).To(Succeed())
	return buf.Bytes()
}

func samplePNG() []byte {
	var buf bytes.Buffer
	Expect(png.Encode(&buf, sampleImage())).To(Succeed())
	return buf.Bytes()
}

var _ = Describe("Image conversion", func() {
	DescribeTable("normalizeMimeType",
		func(in, expected string) {
			Expect(normalizeMimeType(in)).To(Equal(expected))
		},
		Entry("empty defaults to JPEG", "", "image/jpeg"),
		Entry("upper case", " IMAGE/PNG ", "image/png"),
		Entry("with parameters", "application/pdf; charset=binary", "application/pdf"),
	)

	DescribeTable("isHEICFormat",
		func(data []byte, expected bool) {
			Expect(isHEICFormat(data)).To(Equal(expected))
		},
		Entry("heic brand", []byte("\x00\x00\x00\x18ftypheic\x00\x00"), true),
		Entry("mif1 brand", []byte("\x00\x00\x00\x18ftypmif1\x00\x00"), true),
		Entry("mp4 brand", []byte("\x00\x00\x00\x18ftypisom\x00\x00"), false),
		Entry("too short", []byte("ftyp"), false),
	)

	Describe("prepareImageData", func() {
		It("should leave PNG data untouched", func() {
			data := samplePNG()
			out, converted, err := prepareImageData(data, "image/png")
			Expect(err).NotTo(HaveOccurred())
			Expect(converted).To(BeFalse())
			Expect(out).To(Equal(data))
		})

		It("should convert JPEG to PNG", func() {
			out, converted, err := prepareImageData(sampleJPEG(), "image/jpeg")
			Expect(err).NotTo(HaveOccurred())
			Expect(converted).To(BeTrue())
			_, format, err := image.Decode(bytes.NewReader(out))
			Expect(err).NotTo(HaveOccurred())
			Expect(format).To(Equal("png"))
		})

		It("should reject data it cannot decode", func() {
			_, _, err := prepareImageData([]byte("not an image"), "image/webp")
			Expect(err).To(MatchError(ContainSubstring("unsupported image format")))
		})
	})

	Describe("prepareForTextract", func() {
		It("should pass JPEG through", func() {
			data := sampleJPEG()
			out, converted, err := prepareForTextract(data, "image/jpeg")
			Expect(err).NotTo(HaveOccurred())
			Expect(converted).To(BeFalse())
			Expect(out).To(Equal(data))
		})

		It("should pass PDF through", func() {
			data := []byte("%PDF-1.4")
			out, converted, err := prepareForTextract(data, "application/pdf")
			Expect(err).NotTo(HaveOccurred())
			Expect(converted).To(BeFalse())
			Expect(out).To(Equal(data))
		})

		It("should convert other formats to PNG", func() {
			out, converted, err := prepareForTextract(sampleJPEG(), "image/gif")
			Expect(err).NotTo(HaveOccurred())
			Expect(converted).To(BeTrue())
			Expect(string(out[:4])).To(Equal("\x89PNG"))
		})
	})
})
