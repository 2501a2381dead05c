package recast

import (
	"errors"
	"fmt"
)

// ErrBuildFailed is wrapped by every stage failure. A failed stage leaves no
// usable output; callers restart the run from the input geometry.
var ErrBuildFailed = errors.New("recast: build failed")

var (
	ErrRasterize     = fmt.Errorf("%w: rasterize triangles", ErrBuildFailed)
	ErrCompact       = fmt.Errorf("%w: build compact heightfield", ErrBuildFailed)
	ErrErode         = fmt.Errorf("%w: erode walkable area", ErrBuildFailed)
	ErrMedianFilter  = fmt.Errorf("%w: median filter", ErrBuildFailed)
	ErrDistanceField = fmt.Errorf("%w: build distance field", ErrBuildFailed)
	ErrRegions       = fmt.Errorf("%w: build regions", ErrBuildFailed)
	ErrLayers        = fmt.Errorf("%w: build heightfield layers", ErrBuildFailed)
	ErrContours      = fmt.Errorf("%w: build contours", ErrBuildFailed)
	ErrPolyMesh      = fmt.Errorf("%w: build poly mesh", ErrBuildFailed)
	ErrDetailMesh    = fmt.Errorf("%w: build detail mesh", ErrBuildFailed)
	ErrMerge         = fmt.Errorf("%w: merge meshes", ErrBuildFailed)
)

// stageError logs msg through ctx and returns it wrapped in stage.
func stageError(ctx *RcContext, stage error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	ctx.Log(RC_LOG_ERROR, "%s", msg)
	return fmt.Errorf("%w: %s", stage, msg)
}
