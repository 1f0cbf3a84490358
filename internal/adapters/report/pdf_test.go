package report_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/hairhealth/internal/adapters/report"
	. "github.com/smartystreets/goconvey/convey"
)

const sampleReport = `<!DOCTYPE html>
<html><head><title>ignored</title><style>body { color: red; }</style></head>
<body>
<h1>Hair Health Report</h1>
<p><b>Score:</b> 72</p>
<p><b>Risk level:</b> <i>Medium</i></p>
<h2>Tips</h2>
<ul>
<li>Drink more water to keep your scalp hydrated.</li>
<li>Avoid over-washing; use mild, sulfate-free shampoos.</li>
</ul>
<p>Generated for you &amp; your scalp.<br>Stay well.</p>
</body></html>`

// utf16Title is how the document info dictionary stores an ASCII title.
func utf16Title(s string) []byte {
	out := []byte{0xFE, 0xFF}
	for i := 0; i < len(s); i++ {
		out = append(out, 0, s[i])
	}
	return out
}

func TestPDFRenderer(t *testing.T) {
	ctx := context.Background()
	fixed := func() time.Time { return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC) }

	Convey("Given an uncompressed renderer", t, func() {
		r := report.NewPDFRenderer(report.WithCompression(false), report.WithClock(fixed))

		out, err := r.Render(ctx, []byte(sampleReport))

		Convey("Then a PDF document is produced", func() {
			So(err, ShouldBeNil)
			So(bytes.HasPrefix(out, []byte("%PDF-")), ShouldBeTrue)
			So(r.ContentType(), ShouldEqual, "application/pdf")
		})

		Convey("Then the body text is laid out", func() {
			So(string(out), ShouldContainSubstring, "Hair Health Report")
			So(string(out), ShouldContainSubstring, "Medium")
			So(string(out), ShouldContainSubstring, "Stay well.")
		})

		Convey("Then head content is skipped", func() {
			So(string(out), ShouldNotContainSubstring, "color: red")
		})

		Convey("Then the same input renders identically", func() {
			again, err := r.Render(ctx, []byte(sampleReport))
			So(err, ShouldBeNil)
			So(again, ShouldResemble, out)
		})
	})

	Convey("Given a renderer with a custom font and title", t, func() {
		r := report.NewPDFRenderer(
			report.WithCompression(false),
			report.WithClock(fixed),
			report.WithFont("Courier", 13),
			report.WithTitle("Scalp Check"),
		)
		out, err := r.Render(ctx, []byte(sampleReport))
		So(err, ShouldBeNil)

		Convey("Then the body uses that font and size", func() {
			So(string(out), ShouldContainSubstring, "/BaseFont /Courier")
			So(string(out), ShouldNotContainSubstring, "/BaseFont /Helvetica")
			So(string(out), ShouldContainSubstring, "13.00 Tf")
		})

		Convey("Then the title metadata is replaced", func() {
			So(bytes.Contains(out, utf16Title("Scalp Check")), ShouldBeTrue)
			So(bytes.Contains(out, utf16Title("Hair Health Report")), ShouldBeFalse)
		})

		Convey("Then empty overrides keep the defaults", func() {
			plain, err := report.NewPDFRenderer(
				report.WithCompression(false),
				report.WithClock(fixed),
				report.WithFont("", 0),
				report.WithTitle(""),
			).Render(ctx, []byte(sampleReport))
			So(err, ShouldBeNil)
			So(string(plain), ShouldContainSubstring, "/BaseFont /Helvetica")
			So(bytes.Contains(plain, utf16Title("Hair Health Report")), ShouldBeTrue)
		})
	})

	Convey("Given the default renderer", t, func() {
		out, err := report.NewPDFRenderer().Render(ctx, []byte("<p>plain</p>"))

		So(err, ShouldBeNil)
		So(bytes.HasPrefix(out, []byte("%PDF-")), ShouldBeTrue)
	})

	Convey("Given a cancelled context", t, func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := report.NewPDFRenderer().Render(cctx, []byte(sampleReport))
		So(errors.Is(err, context.Canceled), ShouldBeTrue)
	})
}
