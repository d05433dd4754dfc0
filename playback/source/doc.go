// Package source provides graph.Producer implementations: decoded audio
// files, sample-rate adaptation and test tones.
package source
