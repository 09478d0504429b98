package deletes

import (
	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
)

type Stats struct {
	Images        int
	Bytes         int64
	Batches       int
	FailedBatches int
	FailedImages  int
}

func (s *Stats) Add(other Stats) {
	s.Images += other.Images
	s.Bytes += other.Bytes
	s.Batches += other.Batches
	s.FailedBatches += other.FailedBatches
	s.FailedImages += other.FailedImages
}

func (s *Stats) Reclaimed() string {
	return humanize.Bytes(uint64(s.Bytes))
}

func (s *Stats) Info() {
	logrus.Warningln("DELETED INFO:", s.Images, "images,",
		s.Batches, "batches,",
		s.FailedBatches, "failed batches,",
		s.FailedImages, "failed images,",
		s.Reclaimed(),
	)
}
