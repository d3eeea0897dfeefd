// Package fetch retrieves resource archives into the mods directory and
// removes them again.
//
// A fetch walks a fixed sequence of states:
//
//	Probed -> FilenameResolved -> Downloading -> Verified | Failed
//
// The probe is a HEAD request against the resource's download URL that
// follows redirects. The local filename comes from the attachment filename
// of the Content-Disposition header or, failing that, from the .zip name at
// the end of the final CDN URL. The body is streamed into a hidden temporary
// file in the target directory, checked against the advertised
// Content-Length, and renamed into place only when complete. A failed fetch
// never leaves a file under the final name.
//
// Network and integrity failures are retried according to a RetryPolicy.
// Every failure is returned as an *Error carrying its Kind.
package fetch
