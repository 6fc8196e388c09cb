// Package audio 提供本地音频播放实现
package audio

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"novel-assist-api/internal/application/media"
	"novel-assist-api/internal/config"
	"novel-assist-api/pkg/logger"
)

const (
	KindCommand = "command"
	KindDiscard = "discard"
)

// NewPlayer 按配置创建播放器
func NewPlayer(cfg *config.Config) (media.Player, error) {
	pc := cfg.Media.Speech.Player
	switch strings.ToLower(strings.TrimSpace(pc.Kind)) {
	case KindCommand:
		p, err := NewCommandPlayer(pc.Command)
		if err != nil {
			return nil, err
		}
		return p, nil
	case KindDiscard, "":
		return DiscardPlayer{}, nil
	default:
		return nil, fmt.Errorf("unknown audio player kind: %s", pc.Kind)
	}
}

// CommandPlayer 将音频通过 stdin 交给外部播放程序（如 ffplay），阻塞到进程退出
type CommandPlayer struct {
	name string
	args []string
}

// NewCommandPlayer 创建命令播放器，command[0] 为可执行文件
func NewCommandPlayer(command []string) (*CommandPlayer, error) {
	if len(command) == 0 || strings.TrimSpace(command[0]) == "" {
		return nil, fmt.Errorf("audio player command is empty")
	}
	return &CommandPlayer{name: command[0], args: append([]string(nil), command[1:]...)}, nil
}

func (p *CommandPlayer) Play(ctx context.Context, audio io.Reader) error {
	cmd := exec.CommandContext(ctx, p.name, p.args...)
	cmd.Stdin = audio
	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %w: %s", p.name, err, msg)
		}
		return fmt.Errorf("%s: %w", p.name, err)
	}
	return nil
}

// DiscardPlayer 读完音频流后丢弃，用于无音频设备的部署
type DiscardPlayer struct{}

func (DiscardPlayer) Play(ctx context.Context, audio io.Reader) error {
	n, err := io.Copy(io.Discard, audio)
	if err != nil {
		return err
	}
	logger.Debug(ctx, "audio discarded", "bytes", n)
	return nil
}
