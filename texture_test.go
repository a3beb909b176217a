package glctx

import (
	"image"
	"testing"
)

func TestAddTextureUploadsOnce(t *testing.T) {
	c, dev := newTestContext(t)
	tex := NewTexture("diffuse", grayImage(8), WithMipmaps())

	c.AddTexture(tex)
	if got := dev.count("TexImage2D"); got != 1 {
		t.Fatalf("AddTexture issued %d TexImage2D calls, want 1", got)
	}
	if got := dev.count("GenerateMipmaps"); got != 1 {
		t.Errorf("AddTexture issued %d GenerateMipmaps calls, want 1", got)
	}

	dev.reset()
	c.AddTexture(tex)
	if len(dev.calls) != 0 {
		t.Errorf("re-adding an uploaded texture issued device calls: %v", dev.calls)
	}
}

func TestAddPendingTextureTwiceUploadsOnce(t *testing.T) {
	c, dev := newTestContext(t)
	tex := NewPendingTexture("late")

	// Registration precedes data arrival: the second add while the image
	// is still loading must not queue a second upload.
	c.AddTexture(tex)
	c.AddTexture(tex)
	tex.SetImage(grayImage(4))
	if got := dev.count("CreateTexture"); got != 1 {
		t.Errorf("SetImage created %d device textures, want 1", got)
	}
	if got := dev.count("TexImage2D"); got != 1 {
		t.Errorf("SetImage issued %d TexImage2D calls, want 1", got)
	}
}

func TestRemoveTextureCancelsQueuedUpload(t *testing.T) {
	c, dev := newTestContext(t)
	tex := NewPendingTexture("late")
	c.AddTexture(tex)
	c.RemoveTexture(tex)

	tex.SetImage(grayImage(4))
	if got := dev.count("CreateTexture"); got != 0 {
		t.Errorf("upload ran after removal: %d CreateTexture calls, want 0", got)
	}
}

func TestRemoveTexture(t *testing.T) {
	c, dev := newTestContext(t)
	tex := NewTexture("diffuse", grayImage(4))
	c.AddTexture(tex)
	c.BindTexture(tex, -1, false)

	c.RemoveTexture(tex)
	if got := dev.count("DeleteTexture"); got != 1 {
		t.Errorf("RemoveTexture issued %d DeleteTexture calls, want 1", got)
	}
	if got := c.BoundUnit(tex); got != -1 {
		t.Errorf("removed texture still reports unit %d", got)
	}

	// Removing again is a no-op.
	dev.reset()
	c.RemoveTexture(tex)
	if len(dev.calls) != 0 {
		t.Errorf("second RemoveTexture issued device calls: %v", dev.calls)
	}
}

func TestTextureConvertsNonRGBA(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 4, 2))
	tex := NewTexture("mask", gray)
	if w, h := tex.Size(); w != 4 || h != 2 {
		t.Errorf("Size = %dx%d, want 4x2", w, h)
	}
	if len(tex.pixels) != 4*2*4 {
		t.Errorf("pixel store = %d bytes, want %d", len(tex.pixels), 4*2*4)
	}
}

func TestCubemapUpload(t *testing.T) {
	c, dev := newTestContext(t)
	var faces [6]image.Image
	for i := range faces {
		faces[i] = grayImage(4)
	}
	cm := NewCubemap("sky", faces)
	c.AddCubemap(cm)

	if got := dev.count("TexImageCubeFace"); got != 6 {
		t.Errorf("cubemap upload issued %d face uploads, want 6", got)
	}
	if got := dev.count("BindCubemap"); got != 1 {
		t.Errorf("cubemap upload issued %d BindCubemap calls, want 1", got)
	}
	if cm.Size() != 4 {
		t.Errorf("Size = %d, want 4", cm.Size())
	}
}

func TestPendingCubemapUploadsOnSetFaces(t *testing.T) {
	c, dev := newTestContext(t)
	cm := NewPendingCubemap("sky")
	c.AddCubemap(cm)
	if len(dev.calls) != 0 {
		t.Fatalf("pending cubemap uploaded before faces arrived: %v", dev.calls)
	}

	var faces [6]image.Image
	for i := range faces {
		faces[i] = grayImage(2)
	}
	cm.SetFaces(faces)
	if got := dev.count("TexImageCubeFace"); got != 6 {
		t.Errorf("SetFaces issued %d face uploads, want 6", got)
	}
}

func TestAddPendingCubemapTwiceUploadsOnce(t *testing.T) {
	c, dev := newTestContext(t)
	cm := NewPendingCubemap("sky")
	c.AddCubemap(cm)
	c.AddCubemap(cm)

	var faces [6]image.Image
	for i := range faces {
		faces[i] = grayImage(2)
	}
	cm.SetFaces(faces)
	if got := dev.count("CreateTexture"); got != 1 {
		t.Errorf("SetFaces created %d device textures, want 1", got)
	}
}

func TestAnisotropicFallsBackToTrilinear(t *testing.T) {
	dev := newFakeDevice()
	c, err := NewContext("test", dev, WithFilterMode(FilterAnisotropic))
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	dev.reset()
	c.AddTexture(NewTexture("diffuse", grayImage(4)))
	if got := dev.count("SetTextureFilter(trilinear"); got != 1 {
		t.Errorf("upload on a device without anisotropy used filters %v, want trilinear", dev.calls)
	}
}
