package site

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/sitebuilder/internal/content"
)

// stageDiscover walks the content directory and splits documents from assets.
func stageDiscover(_ context.Context, bs *buildState) error {
	docs, err := content.Discover(bs.cfg.Content.Directory)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDiscover, err)
	}

	for _, d := range docs {
		if d.IsAsset {
			bs.assets = append(bs.assets, d)
		} else {
			bs.docs = append(bs.docs, d)
		}
	}
	bs.report.Documents = len(bs.docs)
	return nil
}
