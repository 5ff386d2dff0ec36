// CLAUDE:SUMMARY Deterministic projection of stored guide state into a pretty-printed XMLTV document.
// Package xmltv renders stored guide state as an XMLTV interchange document.
//
// The projection is a pure function of store contents and the evaluation
// instant: identical inputs produce byte-identical output. Channels are
// emitted in channel_number order, then programmes per channel in
// start_time order, covering [now-2h, now+7d).
package xmltv

import (
	"context"
	"encoding/xml"
	"fmt"
	"time"

	"github.com/hazyhaar/guidegrab/store"
)

// timestampLayout is the fixed-width XMLTV date-time-with-offset format.
const timestampLayout = "20060102150405 -0700"

const (
	lookBack  = 2 * time.Hour
	lookAhead = 7 * 24 * time.Hour
)

// TV is the document root.
type TV struct {
	XMLName    xml.Name    `xml:"tv"`
	Channels   []Channel   `xml:"channel"`
	Programmes []Programme `xml:"programme"`
}

// Channel is one channel element. Its id is the display channel number,
// which downstream guide viewers use to join programmes to channels.
type Channel struct {
	ID          string `xml:"id,attr"`
	DisplayName string `xml:"display-name"`
	Icon        *Icon  `xml:"icon"`
}

// Programme is one scheduled broadcast. Optional children are omitted when
// empty rather than emitted as empty elements.
type Programme struct {
	Start    string `xml:"start,attr"`
	Stop     string `xml:"stop,attr"`
	Channel  string `xml:"channel,attr"`
	Title    string `xml:"title"`
	SubTitle string `xml:"sub-title,omitempty"`
	Desc     string `xml:"desc,omitempty"`
	Icon     *Icon  `xml:"icon"`
}

// Icon references an image by URL.
type Icon struct {
	Src string `xml:"src,attr"`
}

// Build projects the store into a pretty-printed XMLTV document evaluated
// at instant now.
func Build(ctx context.Context, st *store.Store, now time.Time) ([]byte, error) {
	channels, err := st.Channels(ctx)
	if err != nil {
		return nil, fmt.Errorf("xmltv: %w", err)
	}

	doc := TV{}
	for _, ch := range channels {
		el := Channel{
			ID:          ch.ChannelNumber,
			DisplayName: ch.ChannelNumber + " " + ch.CallSign,
		}
		if ch.LogoURL != "" {
			el.Icon = &Icon{Src: ch.LogoURL}
		}
		doc.Channels = append(doc.Channels, el)
	}

	start := now.Add(-lookBack)
	end := now.Add(lookAhead)
	for _, ch := range channels {
		programs, err := st.ProgramsInRange(ctx, ch.ID, start, end)
		if err != nil {
			return nil, fmt.Errorf("xmltv: channel %s: %w", ch.ChannelNumber, err)
		}
		for _, p := range programs {
			el := Programme{
				Start:    p.Start.Format(timestampLayout),
				Stop:     p.End.Format(timestampLayout),
				Channel:  ch.ChannelNumber,
				Title:    p.Title,
				SubTitle: p.SubTitle,
				Desc:     p.Description,
			}
			if p.ImageURL != "" {
				el.Icon = &Icon{Src: p.ImageURL}
			}
			doc.Programmes = append(doc.Programmes, el)
		}
	}

	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("xmltv: marshal: %w", err)
	}

	out := make([]byte, 0, len(xml.Header)+len(body)+1)
	out = append(out, xml.Header...)
	out = append(out, body...)
	out = append(out, '\n')
	return out, nil
}
