package blockmatch

import (
	"encoding/json"
	"image"
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"
)

func TestStereoSGBMDefaults(t *testing.T) {
	sgbm, err := NewStereoSGBM(newCountingKernel())
	test.That(t, err, test.ShouldBeNil)

	for field, want := range map[string]float64{
		FieldMinDisparity:      16,
		FieldNumDisparities:    96,
		FieldSADWindowSize:     3,
		FieldUniquenessRatio:   10,
		FieldSpeckleWindowSize: 100,
		FieldSpeckleRange:      32,
		FieldDisp12MaxDiff:     1,
		FieldP1:                216,
		FieldP2:                864,
		FieldFullDP:            0,
	} {
		got, err := sgbm.Get(field)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, got, test.ShouldEqual, want)
	}
}

func TestStereoSGBMPenaltyOrdering(t *testing.T) {
	ck := newCountingKernel()
	sgbm, err := NewStereoSGBM(ck)
	test.That(t, err, test.ShouldBeNil)

	// Raising P1 past P2 or dropping P2 under P1 is rejected without a
	// rebuild.
	builds := ck.sgbmBuilds
	test.That(t, sgbm.Set(FieldP1, 864), test.ShouldNotBeNil)
	test.That(t, sgbm.Set(FieldP1, 900), test.ShouldNotBeNil)
	test.That(t, sgbm.Set(FieldP2, 216), test.ShouldNotBeNil)
	test.That(t, sgbm.Set(FieldP2, 100), test.ShouldNotBeNil)
	test.That(t, ck.sgbmBuilds, test.ShouldEqual, builds)

	// A legal reordering works step by step: lower P1 first, then P2.
	test.That(t, sgbm.Set(FieldP1, 50), test.ShouldBeNil)
	test.That(t, sgbm.Set(FieldP2, 100), test.ShouldBeNil)
	p1, err := sgbm.Get(FieldP1)
	test.That(t, err, test.ShouldBeNil)
	p2, err := sgbm.Get(FieldP2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p1, test.ShouldEqual, 50.0)
	test.That(t, p2, test.ShouldEqual, 100.0)
}

func TestStereoSGBMValidation(t *testing.T) {
	sgbm, err := NewStereoSGBM(newCountingKernel())
	test.That(t, err, test.ShouldBeNil)

	for _, tc := range []struct {
		field string
		value float64
		ok    bool
	}{
		{FieldNumDisparities, 0, false},
		{FieldNumDisparities, 24, false},
		{FieldNumDisparities, 64, true},
		{FieldSADWindowSize, 0, false},
		{FieldSADWindowSize, 4, false},
		{FieldSADWindowSize, 13, false},
		{FieldSADWindowSize, 11, true},
		{FieldUniquenessRatio, 4, false},
		{FieldUniquenessRatio, 16, false},
		{FieldUniquenessRatio, 5, true},
		{FieldSpeckleWindowSize, -1, false},
		{FieldSpeckleWindowSize, 201, false},
		{FieldSpeckleWindowSize, 200, true},
		{FieldSpeckleRange, -1, false},
		{FieldSpeckleRange, 0, true},
		{FieldMinDisparity, -5, true},
		{FieldDisp12MaxDiff, -1, true},
	} {
		err := sgbm.Set(tc.field, tc.value)
		if tc.ok {
			test.That(t, err, test.ShouldBeNil)
		} else {
			test.That(t, err, test.ShouldNotBeNil)
		}
	}
}

func TestStereoSGBMDisparityScaling(t *testing.T) {
	sgbm, err := NewStereoSGBM(newCountingKernel())
	test.That(t, err, test.ShouldBeNil)

	left := image.NewGray(image.Rect(0, 0, 6, 4))
	right := image.NewGray(image.Rect(0, 0, 6, 4))
	disparity, err := sgbm.Disparity(left, right)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, disparity.At(1, 1), test.ShouldEqual, 4.0)
}

func TestStereoSGBMSettingsRoundTrip(t *testing.T) {
	ck := newCountingKernel()
	sgbm, err := NewStereoSGBM(ck)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sgbm.Set(FieldNumDisparities, 64), test.ShouldBeNil)
	test.That(t, sgbm.Set(FieldFullDP, 1), test.ShouldBeNil)

	path := filepath.Join(t.TempDir(), "sgbm.json")
	test.That(t, sgbm.SaveSettings(path), test.ShouldBeNil)

	loaded, err := NewStereoSGBM(ck)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, loaded.LoadSettings(path), test.ShouldBeNil)
	for _, field := range sgbm.Fields() {
		want, err := sgbm.Get(field)
		test.That(t, err, test.ShouldBeNil)
		got, err := loaded.Get(field)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, got, test.ShouldEqual, want)
	}
}

func TestStereoSGBMLoadRejectsBadPenaltyOrder(t *testing.T) {
	ck := newCountingKernel()
	sgbm, err := NewStereoSGBM(ck)
	test.That(t, err, test.ShouldBeNil)

	values := map[string]float64{}
	for _, field := range sgbm.Fields() {
		v, err := sgbm.Get(field)
		test.That(t, err, test.ShouldBeNil)
		values[field] = v
	}
	values[FieldP1] = 900
	values[FieldP2] = 800
	data, err := json.Marshal(values)
	test.That(t, err, test.ShouldBeNil)
	path := filepath.Join(t.TempDir(), "sgbm.json")
	test.That(t, os.WriteFile(path, data, 0o644), test.ShouldBeNil)

	builds := ck.sgbmBuilds
	test.That(t, sgbm.LoadSettings(path), test.ShouldNotBeNil)
	test.That(t, ck.sgbmBuilds, test.ShouldEqual, builds)
	p1, err := sgbm.Get(FieldP1)
	test.That(t, err, test.ShouldBeNil)
	p2, err := sgbm.Get(FieldP2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p1, test.ShouldEqual, 216.0)
	test.That(t, p2, test.ShouldEqual, 864.0)
}

func TestNewMatcherKinds(t *testing.T) {
	ck := newCountingKernel()
	bm, err := NewMatcher(KindStereoBM, ck)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, bm.Kind(), test.ShouldEqual, KindStereoBM)

	sgbm, err := NewMatcher(KindStereoSGBM, ck)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sgbm.Kind(), test.ShouldEqual, KindStereoSGBM)

	_, err = NewMatcher(Kind("other"), ck)
	test.That(t, err, test.ShouldNotBeNil)
}
