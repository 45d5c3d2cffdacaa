package download

// Package download implements the stream extraction step of the pipeline
// on top of yt-dlp (via github.com/lrstanley/go-ytdlp). It fetches the best
// audio stream for a video URL into a working directory and reports byte
// progress; MP3 conversion is a separate step owned by internal/convert.
