package gifencoder

import "errors"

var (
	ErrNoFrames         = errors.New("gifencoder: no frames to render")
	ErrDelayRange       = errors.New("gifencoder: frame delay out of range")
	ErrFrameSize        = errors.New("gifencoder: pixel buffer does not match canvas size")
	ErrImageTooLarge    = errors.New("gifencoder: image is too large to encode")
	ErrUnknownDither    = errors.New("gifencoder: unknown dithering kernel")
	ErrUnknownQuantizer = errors.New("gifencoder: unknown quantizer")
	ErrPalette          = errors.New("gifencoder: invalid palette")
	ErrFrameIndex       = errors.New("gifencoder: frame index out of range")
	ErrDisposal         = errors.New("gifencoder: invalid disposal method")
)
