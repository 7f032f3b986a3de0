// Package media wraps the external binaries used to acquire audio: yt-dlp
// for downloads and ffmpeg for extraction. Success always means a zero exit
// status and a non-empty output file.
package media
