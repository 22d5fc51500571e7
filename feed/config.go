package feed

import (
	"io/ioutil"
	"log"

	"gopkg.in/yaml.v2"
)

// Config carries the feed composition tuning knobs. Values are deliberately
// yaml-shouty so the deployed config file reads like an env file.
type Config struct {
	// Per-source candidate limit is pageSize * CANDIDATE_MULTIPLIER, capped at
	// MAX_CANDIDATE_PER_SOURCE. Must stay above 1 so sources over-fetch enough
	// to survive the merge.
	CANDIDATE_MULTIPLIER      int `yaml:"CANDIDATE_MULTIPLIER"`
	MAX_CANDIDATE_PER_SOURCE  int `yaml:"MAX_CANDIDATE_PER_SOURCE"`
	// Minimum engagement floor for a post to count as trending.
	MIN_TRENDING_LIKES        int `yaml:"MIN_TRENDING_LIKES"`
	// Trending candidate ids are cached in redis for this long.
	TRENDING_CACHE_TTL_SECOND int64 `yaml:"TRENDING_CACHE_TTL_SECOND"`
	// Requested page sizes above this are capped, not rejected.
	MAX_PAGE_SIZE             int `yaml:"MAX_PAGE_SIZE"`
	// Personalized ranking time window in hours: source priority dominates
	// ordering between posts falling inside the same window.
	RANK_WINDOW_HOUR          int `yaml:"RANK_WINDOW_HOUR"`
}

// DefaultConfig returns the tuning used when no config file is deployed.
func DefaultConfig() Config {
	return Config{
		CANDIDATE_MULTIPLIER:      3,
		MAX_CANDIDATE_PER_SOURCE:  90,
		MIN_TRENDING_LIKES:        10,
		TRENDING_CACHE_TTL_SECOND: 60,
		MAX_PAGE_SIZE:             30,
		RANK_WINDOW_HOUR:          6,
	}
}

// ParseConfig reads the feed tuning config from a yaml file, aborting on a
// malformed deploy.
func ParseConfig(path string) Config {
	c := Config{}
	yamlFile, err := ioutil.ReadFile(path)
	if err != nil {
		log.Fatal("yamlFile. get err: ", err.Error())
	}
	err = yaml.Unmarshal(yamlFile, &c)
	if err != nil {
		log.Fatal("Unmarshal: ", err)
	}
	return c
}
