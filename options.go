package gpuframe

import "github.com/gogpu/gpuframe/config"

// Profile is the default frame geometry of an Environment. ConvertImage
// uses it when a caller passes a zero width or height.
type Profile struct {
	Width      int
	Height     int
	Colorspace Colorspace
}

// DefaultProfile returns 1920x1080 BT.709.
func DefaultProfile() Profile {
	return Profile{Width: 1920, Height: 1080, Colorspace: Colorspace709}
}

// EnvOption configures an Environment during creation.
//
// Example:
//
//	env, err := gpuframe.NewEnvironment(b,
//	    gpuframe.WithProfile(gpuframe.Profile{Width: 720, Height: 576, Colorspace: gpuframe.Colorspace601}),
//	    gpuframe.WithMaxEntries(256))
type EnvOption func(*envOptions)

type envOptions struct {
	maxEntries int
	profile    Profile
	interp     string
}

func defaultEnvOptions() envOptions {
	return envOptions{
		maxEntries: 1024,
		profile:    DefaultProfile(),
		interp:     InterpBilinear,
	}
}

// WithMaxEntries caps each pool list (textures, framebuffers) at n entries.
// Non-positive values keep the default of 1024.
func WithMaxEntries(n int) EnvOption {
	return func(o *envOptions) {
		if n > 0 {
			o.maxEntries = n
		}
	}
}

// WithProfile sets the default frame geometry.
func WithProfile(p Profile) EnvOption {
	return func(o *envOptions) {
		o.profile = p
	}
}

// WithInterp sets the interpolation mode Rescale uses when a frame does not
// name one.
func WithInterp(mode string) EnvOption {
	return func(o *envOptions) {
		o.interp = mode
	}
}

// WithConfig applies the profile, pool and rescale sections of a decoded
// configuration file.
func WithConfig(c *config.Config) EnvOption {
	return func(o *envOptions) {
		if c == nil {
			return
		}
		if c.Profile.Width > 0 && c.Profile.Height > 0 {
			o.profile = Profile{
				Width:      c.Profile.Width,
				Height:     c.Profile.Height,
				Colorspace: Colorspace(c.Profile.Colorspace),
			}
		}
		if c.Pool.MaxEntries > 0 {
			o.maxEntries = c.Pool.MaxEntries
		}
		if c.Rescale.Interp != "" {
			o.interp = c.Rescale.Interp
		}
	}
}
