package web

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

func Board(data BoardData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>`)
		b.WriteString(templ.EscapeString(data.Title))
		b.WriteString(`</title>
  </head>
  <body>
    <main class="board">
      <header>
        <h1>`)
		b.WriteString(templ.EscapeString(data.Title))
		b.WriteString(`</h1>
`)
		if data.CurrentUser != "" {
			b.WriteString(`        <p class="session">Signed in: <strong>`)
			b.WriteString(templ.EscapeString(data.CurrentUser))
			b.WriteString(`</strong> (`)
			b.WriteString(templ.EscapeString(data.Role))
			b.WriteString(`)</p>
`)
		} else {
			b.WriteString(`        <p class="session">Nobody signed in</p>
`)
		}
		b.WriteString(`        <p class="connections">Live connections: `)
		b.WriteString(itoa(data.Connections))
		b.WriteString(`</p>
      </header>
      <ol class="players">
`)
		for _, player := range data.Players {
			b.WriteString(`        <li id="player-`)
			b.WriteString(itoa(player.ID))
			b.WriteString(`" class="`)
			b.WriteString(templ.EscapeString(classes("player", onlineClass(player.IsOnline), placedClass(player.Placed))))
			b.WriteString(`" data-x="`)
			b.WriteString(formatCoord(player.X))
			b.WriteString(`" data-y="`)
			b.WriteString(formatCoord(player.Y))
			b.WriteString(`">`)
			if player.Avatar != "" {
				b.WriteString(`<img src="`)
				b.WriteString(templ.EscapeString(player.Avatar))
				b.WriteString(`" alt="" width="32" height="32"/> `)
			}
			b.WriteString(`<span class="name">`)
			b.WriteString(templ.EscapeString(player.Name))
			b.WriteString(`</span>`)
			if player.LastGame != "" {
				b.WriteString(` <span class="game">`)
				b.WriteString(templ.EscapeString(player.LastGame))
				b.WriteString(`</span>`)
			}
			if player.Dice > 0 {
				b.WriteString(` <span class="dice">`)
				b.WriteString(itoa(player.Dice))
				b.WriteString(`</span>`)
			}
			b.WriteString(`</li>
`)
		}
		b.WriteString(`      </ol>
      <img class="qr" src="/qr" alt="Board link" width="160" height="160"/>
    </main>
  </body>
</html>
`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func onlineClass(online bool) string {
	if online {
		return "online"
	}
	return "offline"
}

func placedClass(placed bool) string {
	if placed {
		return ""
	}
	return "unplaced"
}
