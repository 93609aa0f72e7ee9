// Package analysis computes Fourier diagnostics of simulated fields.
//
//   - [PowerSpectrum]: magnitude of the 2D DFT
//   - [Spectrum.Radial]: isotropic profile binned by |k|
//   - [Spectrum.Shifted], [Spectrum.LogMagnitude]: display orderings
//
// # Pattern Detection
//
// A uniform field only has power at zero frequency. A field that formed
// structure shows a peak at a non-zero bin:
//
//	_, prof, _ := analysis.Analyze(snap.G, analysis.DefaultBinWidth)
//	if b := prof.DominantBin(); b > 0 {
//	    wavelength := 2 * math.Pi / prof.Wavenumber(b)
//	}
package analysis
