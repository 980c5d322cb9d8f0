// Package capture opens the physical audio input device through
// portaudio and reads fixed-duration PCM-16 frames from it. Device
// selection matches a configured case-insensitive name substring.
package capture
