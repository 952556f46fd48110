package release

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var (
	yearToken = regexp.MustCompile(`^(19|20)\d{2}$`)
	extToken  = regexp.MustCompile(`^\.[A-Za-z0-9]{2,4}$`)

	// separators become spaces before tokenizing
	separators = strings.NewReplacer(".", " ", "_", " ", "(", " ", ")", " ", "[", " ", "]", " ", "{", " ", "}", " ")
)

// markers that end the title portion of a name
var (
	resolutionTokens = map[string]Resolution{
		"2160p": Resolution2160p, "4k": Resolution2160p, "uhd": Resolution2160p,
		"1080p": Resolution1080p, "1080i": Resolution1080p,
		"720p": Resolution720p,
		"480p": Resolution480p, "576p": Resolution480p,
	}
	sourceTokens = map[string]Source{
		"bluray": SourceBluRay, "blu-ray": SourceBluRay, "bdrip": SourceBluRay, "brrip": SourceBluRay, "remux": SourceBluRay,
		"web-dl": SourceWEBDL, "webdl": SourceWEBDL, "web": SourceWEBDL,
		"webrip": SourceWEBRip, "web-rip": SourceWEBRip,
		"hdtv": SourceHDTV,
		"dvdrip": SourceDVD, "dvd": SourceDVD, "dvdscr": SourceDVD,
	}
	codecTokens = map[string]Codec{
		"x264": CodecX264, "h264": CodecX264, "avc": CodecX264,
		"x265": CodecX265, "h265": CodecX265, "hevc": CodecX265,
		"xvid": CodecXviD, "divx": CodecXviD,
	}
	extendedTokens = map[string]bool{"extended": true, "unrated": true}
)

// Parse extracts the title and year of a movie from a file name or path.
// Only the base name is considered. When no year or quality marker is
// present the whole name becomes the title.
func Parse(name string) *Info {
	info := &Info{}

	name = filepath.Base(name)
	if ext := filepath.Ext(name); extToken.MatchString(ext) && len(name) > len(ext) {
		name = name[:len(name)-len(ext)]
	}

	tokens := strings.Fields(separators.Replace(name))
	end := len(tokens)

	for i, tok := range tokens {
		if isMarker(tok) {
			end = i
			break
		}
		if i == 0 || !yearToken.MatchString(tok) {
			continue
		}
		// "Blade Runner 2049 2017": the last of consecutive years is the release year
		for i+1 < len(tokens) && yearToken.MatchString(tokens[i+1]) {
			i++
		}
		info.Year, _ = strconv.Atoi(tokens[i])
		end = i
		break
	}

	for _, tok := range tokens[end:] {
		classify(info, tok)
	}

	info.Title = strings.Trim(strings.Join(tokens[:end], " "), " -")
	if info.Title == "" {
		info.Title = strings.Join(tokens, " ")
	}
	info.CleanTitle = CleanTitle(info.Title)
	return info
}

func isMarker(tok string) bool {
	t := strings.ToLower(tok)
	if _, ok := resolutionTokens[t]; ok {
		return true
	}
	if _, ok := sourceTokens[t]; ok && t != "web" {
		return true
	}
	if _, ok := codecTokens[t]; ok {
		return true
	}
	// x264-GROUP
	if head, _, found := strings.Cut(t, "-"); found {
		if _, ok := codecTokens[head]; ok {
			return true
		}
		if _, ok := resolutionTokens[head]; ok {
			return true
		}
	}
	return false
}

func classify(info *Info, tok string) {
	t := strings.ToLower(tok)
	head, _, _ := strings.Cut(t, "-")
	if r, ok := resolutionTokens[t]; ok && info.Resolution == ResolutionUnknown {
		info.Resolution = r
	} else if r, ok := resolutionTokens[head]; ok && info.Resolution == ResolutionUnknown {
		info.Resolution = r
	}
	if s, ok := sourceTokens[t]; ok && info.Source == SourceUnknown {
		info.Source = s
	}
	if c, ok := codecTokens[t]; ok && info.Codec == CodecUnknown {
		info.Codec = c
	} else if c, ok := codecTokens[head]; ok && info.Codec == CodecUnknown {
		info.Codec = c
	}
	if extendedTokens[t] {
		info.Extended = true
	}
}
