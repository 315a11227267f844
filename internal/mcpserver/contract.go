package mcpserver

// DeckFormatContract describes the deck text format that LLM consumers
// should follow when writing or editing presentations.
const DeckFormatContract = `# Pinpoint Deck Format

A deck is a plain UTF-8 text file. Slides are separated by lines that start
with a hyphen. Everything is line oriented; there are no escapes.

## Structure

` + "```" + `
# Lines starting with # are comments (a comment needs a line ending).
[bottom]                 # options before the first slide apply to every slide
[slide-bg.jpg]

--- [black] [center]     # a slide header: one or more hyphens, then options
A presentation

-- [title.png] [fill]
<b>Bold</b>, <i>italic</i>, <u>underline</u>, <s>strike</s>
H<sub>2</sub>O and E = mc<sup>2</sup>
<span font="40" color="yellow">explicit size and color</span>
` + "```" + `

## Rules

1. **Options** are ` + "`" + `[token]` + "`" + ` groups. Options on a slide header override the
   global ones before the first slide. Within a list the first match wins.
2. **Slide text** runs until the next line that begins with ` + "`" + `-` + "`" + `. Never start
   a body line with a hyphen (use a bullet such as ` + "`" + `•` + "`" + ` instead).
3. **Blank lines** directly after a header are dropped.
4. **Stray text** between the global options and the first header ends the
   deck: that text and every slide after it are ignored. The parse_deck tool
   reports it as "remainder".

## Options

| Option | Effect |
|---|---|
| ` + "`" + `[file.png]` + "`" + ` ` + "`" + `[file.jpg]` + "`" + ` ` + "`" + `[file.jpeg]` + "`" + ` ` + "`" + `[file.gif]` + "`" + ` | background image, relative to the deck file |
| ` + "`" + `[fit]` + "`" + ` ` + "`" + `[fill]` + "`" + ` ` + "`" + `[stretch]` + "`" + ` ` + "`" + `[unscaled]` + "`" + ` | background image scaling (default fit) |
| ` + "`" + `[red]` + "`" + ` ` + "`" + `[orange]` + "`" + ` ` + "`" + `[yellow]` + "`" + ` ` + "`" + `[green]` + "`" + ` ` + "`" + `[blue]` + "`" + ` ` + "`" + `[purple]` + "`" + ` ` + "`" + `[white]` + "`" + ` ` + "`" + `[black]` + "`" + ` | solid background color |
| ` + "`" + `[center]` + "`" + ` ` + "`" + `[top]` + "`" + ` ` + "`" + `[bottom]` + "`" + ` ` + "`" + `[left]` + "`" + ` ` + "`" + `[right]` + "`" + ` ` + "`" + `[top-left]` + "`" + ` ` + "`" + `[top-right]` + "`" + ` ` + "`" + `[bottom-left]` + "`" + ` ` + "`" + `[bottom-right]` + "`" + ` | text block position (default center) |
| ` + "`" + `[text-align=left]` + "`" + ` ` + "`" + `[text-align=center]` + "`" + ` ` + "`" + `[text-align=right]` + "`" + ` | line alignment (default left) |
| ` + "`" + `[no-markup]` + "`" + ` | show the text verbatim at a fixed size |
| ` + "`" + `[command=...]` + "`" + ` | shell command the viewer may run for the slide |

An image background wins over a color; without either the slide is dark gray.

## Sizing

Text is white and sized automatically to fill the slide. Keep slides short:
one idea, a few words. Long lines shrink down to a minimum size.
`
