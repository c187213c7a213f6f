package crawler

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"github.com/pedromiglou/JARR/app/database"
)

// HashLink derives the content address of a canonical link. Articles from
// different feeds pointing at the same resource hash to the same value and
// end up in the same cluster.
func HashLink(link string) []byte {
	hash := sha256.Sum256([]byte(strings.TrimSpace(link)))
	return hash[:]
}

// Clusterizer routes a new article into the cluster of articles sharing its
// link hash, creating the cluster when the link is seen for the first time.
type Clusterizer struct {
	clusterRepo database.ClusterRepository
	linkRepo    database.LinkRepository
}

func NewClusterizer(clusterRepo database.ClusterRepository, linkRepo database.LinkRepository) *Clusterizer {
	return &Clusterizer{
		clusterRepo: clusterRepo,
		linkRepo:    linkRepo,
	}
}

// Run returns the cluster id the article belongs to. An existing cluster is
// refreshed so it resurfaces as unread with the earliest date as main date.
func (c *Clusterizer) Run(userID int64, linkHash []byte, link, title, feedTitle string, date time.Time) (int64, error) {
	err := c.linkRepo.Upsert(&database.Link{
		UserID:   userID,
		LinkHash: linkHash,
		Link:     link,
		LinkType: database.LinkTypeMain,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to upsert link: %w", err)
	}

	existing, err := c.clusterRepo.GetByLinkHash(userID, linkHash)
	if err != nil {
		return 0, fmt.Errorf("failed to look up cluster by link hash: %w", err)
	}
	if existing != nil {
		if err := c.clusterRepo.Refresh(userID, existing.ID, date); err != nil {
			return 0, fmt.Errorf("failed to refresh cluster: %w", err)
		}
		return existing.ID, nil
	}

	clusterID, err := c.clusterRepo.Create(&database.Cluster{
		UserID:        userID,
		MainTitle:     title,
		MainFeedTitle: feedTitle,
		MainLink:      link,
		MainDate:      date,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create cluster: %w", err)
	}
	return clusterID, nil
}
