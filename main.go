package main

import (
	"github.com/pmkol/strqueue/coremain"
	"github.com/pmkol/strqueue/mlog"
)

func main() {
	if err := coremain.Run(); err != nil {
		mlog.S().Fatal(err)
	}
}
