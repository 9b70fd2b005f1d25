// Command briskdemo renders a sample scene with the brisk canvas and
// writes it to a PNG. The renderer flag picks a backend; the default
// tries the GPU and falls back to software.
package main

import (
	"flag"
	"image/png"
	"log"
	"math"
	"os"

	"golang.org/x/image/font/gofont/goregular"

	brisk "github.com/dancazarin/brisk-sub002"
	"github.com/dancazarin/brisk-sub002/colors"
	"github.com/dancazarin/brisk-sub002/fonts"
	"github.com/dancazarin/brisk-sub002/pixel"
	"github.com/dancazarin/brisk-sub002/render"

	_ "github.com/dancazarin/brisk-sub002/render/software"
	_ "github.com/dancazarin/brisk-sub002/render/wgpu"
)

func main() {
	var (
		width    = flag.Int("width", 800, "image width")
		height   = flag.Int("height", 600, "image height")
		output   = flag.String("output", "demo.png", "output file")
		renderer = flag.String("renderer", "", "backend: webgpu, software or empty for auto")
	)
	flag.Parse()

	dev, err := render.CreateDevice(render.Options{Renderer: render.Renderer(*renderer)})
	if err != nil {
		log.Fatalf("create device: %v", err)
	}
	defer dev.Close()
	log.Printf("using %s (%s)", dev.Info().API, dev.Info().Device)

	enc, err := dev.CreateEncoder()
	if err != nil {
		log.Fatalf("create encoder: %v", err)
	}
	target, err := dev.CreateImageTarget(*width, *height, pixel.F32)
	if err != nil {
		log.Fatalf("create target: %v", err)
	}
	p, err := render.NewPipeline(dev, enc, target, [4]float32{0.12, 0.12, 0.14, 1})
	if err != nil {
		log.Fatalf("create pipeline: %v", err)
	}

	c := brisk.NewCanvas(p)
	drawScene(c, float32(*width), float32(*height))

	if err := p.Close(); err != nil {
		log.Fatalf("flush: %v", err)
	}
	if err := enc.Wait(); err != nil {
		log.Fatalf("wait: %v", err)
	}

	f, err := os.Create(*output)
	if err != nil {
		log.Fatalf("create %s: %v", *output, err)
	}
	defer f.Close()
	if err := png.Encode(f, target.Image().ToNRGBA()); err != nil {
		log.Fatalf("encode: %v", err)
	}
	log.Printf("wrote %s (%dx%d)", *output, *width, *height)
}

func drawScene(c *brisk.Canvas, w, h float32) {
	// Gradient banner across the top.
	g := brisk.NewLinearGradient(brisk.Pt(0, 0), brisk.Pt(w, 0))
	g.AddStop(0, colors.Navy)
	g.AddStop(0.5, colors.Purple)
	g.AddStop(1, colors.Orange)
	c.SetFillPaint(brisk.GradientPaint(g))
	check(c.FillRect(brisk.RectXYWH(0, 0, w, 120)))

	// A row of rounded rectangles.
	palette := []colors.Color{colors.Red, colors.Lime, colors.Blue, colors.Yellow, colors.Cyan}
	for i, col := range palette {
		c.SetFillColor(col)
		x := 40 + float32(i)*120
		check(c.FillRoundedRect(brisk.RectXYWH(x, 160, 100, 100), 16))
	}

	// Stroked star path.
	c.Save()
	c.Translate(w/2, h-160)
	star := brisk.NewPath()
	for i := 0; i <= 10; i++ {
		r := float32(100)
		if i%2 == 1 {
			r = 40
		}
		a := float32(i) * math.Pi / 5
		x := r * float32(math.Sin(float64(a)))
		y := -r * float32(math.Cos(float64(a)))
		if i == 0 {
			star.MoveTo(x, y)
		} else {
			star.LineTo(x, y)
		}
	}
	star.Close()
	c.SetFillColor(colors.Teal)
	check(c.FillPath(star))
	c.SetStrokeColor(colors.White)
	c.SetStrokeWidth(3)
	check(c.StrokePath(star))
	c.Restore()

	// Text, when the bundled face loads.
	fm := fonts.NewManager()
	if err := fm.AddFont("Go", fonts.StyleNormal, fonts.WeightRegular, goregular.TTF); err == nil {
		c.SetFontManager(fm)
		c.SetFillColor(colors.White)
		fnt := fonts.Font{Family: "Go", Weight: fonts.WeightRegular, Size: 32}
		check(c.FillText("brisk canvas demo", fnt, brisk.Pt(40, 40), 0))
	}
}

func check(err error) {
	if err != nil {
		log.Fatalf("draw: %v", err)
	}
}
