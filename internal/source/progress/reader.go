package progress

import "io"

// Reader wraps an io.Reader and reports cumulative progress through a
// callback every reportEvery bytes. Total may be zero when the stream
// size is unknown.
type Reader struct {
	r           io.Reader
	total       int64
	reportEvery int64
	onProgress  func(read, total int64)

	read          int64
	sinceLastCall int64
}

func NewReader(r io.Reader, total, reportEvery int64, onProgress func(read, total int64)) *Reader {
	return &Reader{
		r:           r,
		total:       total,
		reportEvery: reportEvery,
		onProgress:  onProgress,
	}
}

func (pr *Reader) Read(p []byte) (int, error) {
	n, err := pr.r.Read(p)
	if n > 0 {
		pr.read += int64(n)
		pr.sinceLastCall += int64(n)

		if pr.sinceLastCall >= pr.reportEvery {
			pr.onProgress(pr.read, pr.total)
			pr.sinceLastCall = 0
		}
	}

	return n, err
}
