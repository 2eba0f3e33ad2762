package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/basicfont"

	"minpile/pkg/asm"
	"minpile/pkg/compiler"
	"minpile/pkg/config"
	"minpile/pkg/cpu"
	"minpile/pkg/grid"
	"minpile/pkg/peripherals"
	"minpile/pkg/utils"
)

const (
	screenWidth  = 512
	screenHeight = 384

	charWidth  = 7
	charHeight = 13
	cols       = screenWidth / charWidth

	// textRows bounds how much of one block's text is shown.
	textRows = 8

	tileCols    = 12
	tilesPerRow = cols / tileCols
	maxTiles    = 2 * tilesPerRow
)

var (
	titleColor   = color.RGBA{0xff, 0xd3, 0x7f, 0xff}
	textColor    = color.White
	errColor     = color.RGBA{0xff, 0x55, 0x55, 0xff}
	historyColor = color.RGBA{0x88, 0x88, 0x88, 0xff}
)

// Game runs the processor a slice at a time and draws every message block.
type Game struct {
	vm     *cpu.CPU
	blocks []*peripherals.MessageBlock
	face   text.Face

	stepsPerFrame int
	paused        bool
	err           error
}

func newGame(listing []string, cfg *config.Config, stepsPerFrame int) (*Game, error) {
	prog, err := asm.AssembleLines(listing)
	if err != nil {
		return nil, fmt.Errorf("assembly failed: %w", err)
	}
	vm := cpu.NewCPU(prog, cfg.CPUOptions()...)
	return &Game{
		vm:            vm,
		blocks:        cfg.MountMessages(vm),
		face:          text.NewGoXFace(basicfont.Face7x13),
		stepsPerFrame: stepsPerFrame,
	}, nil
}

// advance executes up to stepsPerFrame instructions.
func (g *Game) advance() {
	if g.paused || g.err != nil {
		return
	}
	for i := 0; i < g.stepsPerFrame; i++ {
		if g.vm.Halted {
			return
		}
		if g.vm.MaxSteps > 0 && g.vm.Steps >= g.vm.MaxSteps {
			g.err = cpu.ErrStepLimit
			return
		}
		if err := g.vm.Step(); err != nil {
			g.err = err
			return
		}
	}
}

func (g *Game) restart() {
	g.vm.Reset()
	for _, b := range g.blocks {
		b.Clear()
	}
	g.err = nil
}

// glyph is text placed on the character grid.
type glyph struct {
	x, y int
	text string
	clr  color.Color
}

// layout places every block's title, its current text and a strip of its
// earlier texts, followed by a status line.
func (g *Game) layout() []glyph {
	var out []glyph
	y := 0
	for _, b := range g.blocks {
		out = append(out, glyph{y: y, text: fmt.Sprintf("[%s]", b.Name()), clr: titleColor})
		y++

		used := 1
		for _, c := range grid.Cells(b.Text(), cols, textRows) {
			out = append(out, glyph{x: c.X, y: y + c.Y, text: string(c.Rune), clr: textColor})
			if c.Y+1 > used {
				used = c.Y + 1
			}
		}
		y += used

		// Earlier texts, newest first, tiled across the row.
		hist := b.History()
		if len(hist) > 1 {
			earlier := hist[:len(hist)-1]
			n := min(len(earlier), maxTiles)
			for i := 0; i < n; i++ {
				tx, ty := grid.GetGridCoords(i, tilesPerRow)
				out = append(out, glyph{x: tx * tileCols, y: y + ty, text: clip(earlier[len(earlier)-1-i], tileCols-1), clr: historyColor})
			}
			y += (n + tilesPerRow - 1) / tilesPerRow
		}
	}

	if g.err != nil {
		out = append(out, glyph{y: y, text: "error: " + g.err.Error(), clr: errColor})
		y++
	}
	status := fmt.Sprintf("steps %d  pc %d", g.vm.Steps, g.vm.PC)
	switch {
	case g.vm.Halted:
		status += "  halted"
	case g.paused:
		status += "  paused"
	}
	return append(out, glyph{y: y, text: status, clr: titleColor})
}

// clip shortens s to at most n runes.
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.restart()
	}
	g.advance()
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	for _, gl := range g.layout() {
		if (gl.y+1)*charHeight > screenHeight {
			continue
		}
		op := &text.DrawOptions{}
		op.GeoM.Translate(float64(gl.x*charWidth), float64(gl.y*charHeight))
		op.ColorScale.ScaleWithColor(gl.clr)
		text.Draw(screen, gl.text, g.face, op)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

func main() {
	inPath := flag.String("i", "", "input source file")
	cfgPath := flag.String("config", "", "YAML configuration file")
	showAsm := flag.Bool("show-asm", false, "print the generated instructions")
	steps := flag.Int("steps", 10000, "instructions executed per frame")
	flag.Parse()

	if *inPath == "" {
		log.Fatal("usage: desktop -i <file>")
	}
	fullPath, dir, err := utils.GetPathInfo(*inPath)
	if err != nil {
		log.Fatalf("Invalid path: %v", err)
	}
	source, err := os.ReadFile(fullPath)
	if err != nil {
		log.Fatalf("Failed to read source file: %v", err)
	}

	cfg := config.Default()
	if *cfgPath == "" {
		*cfgPath = utils.FindConfig(dir, "minpile.yaml", "minpile.yml")
	}
	if *cfgPath != "" {
		if cfg, err = config.Load(*cfgPath); err != nil {
			log.Fatal(err)
		}
	}
	opts, err := cfg.CompilerOptions(nil)
	if err != nil {
		log.Fatal(err)
	}

	res, err := compiler.Compile(string(source), opts)
	if err != nil {
		log.Fatalf("Compilation failed:\n%v", err)
	}
	if *showAsm {
		fmt.Println(res.Text())
	}

	game, err := newGame(res.Instructions, cfg, *steps)
	if err != nil {
		log.Fatal(err)
	}

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("minpile " + *inPath)
	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
