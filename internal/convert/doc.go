// Package convert produces the final MP3 output by driving the ffmpeg
// binary. Conversion progress is parsed from ffmpeg's -progress stream and
// scaled against the input duration measured with ffprobe.
package convert
