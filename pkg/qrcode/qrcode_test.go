package qrcode

import (
	"bytes"
	"image/png"
	"strings"
	"testing"
)

func TestRenderPNG_WithCaption(t *testing.T) {
	data, err := RenderPNG("https://clock.example.com/clock?site=riverside", "Riverside Tower", 256)
	if err != nil {
		t.Fatalf("RenderPNG 失败: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("输出不是有效 PNG: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 256 || b.Dy() != 256+CaptionHeight {
		t.Errorf("期望尺寸 256x%d，实际 %dx%d", 256+CaptionHeight, b.Dx(), b.Dy())
	}
}

func TestRenderPNG_NoCaption(t *testing.T) {
	data, err := RenderPNG("hello", "", 128)
	if err != nil {
		t.Fatalf("RenderPNG 失败: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("输出不是有效 PNG: %v", err)
	}
	if img.Bounds().Dy() != 128 {
		t.Errorf("无标题时不应增加高度，实际高度 %d", img.Bounds().Dy())
	}
}

func TestRenderPNG_LongCaptionTruncated(t *testing.T) {
	if _, err := RenderPNG("x", strings.Repeat("Long Site Name ", 20), 128); err != nil {
		t.Fatalf("超长标题不应失败: %v", err)
	}
}
