// Package xfyun implements the iFlytek long-form speech recognition (LFASR)
// protocol: a signed prepare call, sliced multipart uploads, merge, bounded
// progress polling and result retrieval.
//
// Every request carries a fresh timestamp and signature. Failures are typed
// as transport, rejected, protocol or timeout errors so callers can classify
// them without parsing messages.
package xfyun
