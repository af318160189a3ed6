package qrcode

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"

	qr "github.com/skip2/go-qrcode"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// CaptionHeight 图片底部标题栏高度（像素）
const CaptionHeight = 28

// glyphWidth basicfont.Face7x13 的字宽
const glyphWidth = 7

// RenderPNG 将 content 编码为二维码 PNG，caption 非空时在下方居中绘制一行标题
func RenderPNG(content, caption string, size int) ([]byte, error) {
	code, err := qr.New(content, qr.Medium)
	if err != nil {
		return nil, fmt.Errorf("生成二维码失败: %w", err)
	}

	src := code.Image(size)
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	canvasHeight := height
	if caption != "" {
		canvasHeight += CaptionHeight
	}
	canvas := image.NewRGBA(image.Rect(0, 0, width, canvasHeight))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(canvas, image.Rect(0, 0, width, height), src, bounds.Min, draw.Src)

	if caption != "" {
		drawCaption(canvas, caption, width, height)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("编码 PNG 失败: %w", err)
	}
	return buf.Bytes(), nil
}

func drawCaption(dst *image.RGBA, text string, width, top int) {
	maxChars := width / glyphWidth
	if runes := []rune(text); len(runes) > maxChars && maxChars > 3 {
		text = string(runes[:maxChars-3]) + "..."
	}

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.Black,
		Face: basicfont.Face7x13,
	}
	x := (fixed.I(width) - d.MeasureString(text)) / 2
	if x < 0 {
		x = 0
	}
	d.Dot = fixed.Point26_6{X: x, Y: fixed.I(top + CaptionHeight/2 + 5)}
	d.DrawString(text)
}
