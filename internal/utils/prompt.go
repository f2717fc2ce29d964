package utils

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// ConsolePrompter 在终端打印提示并等待回车
type ConsolePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewConsolePrompter 使用标准输入输出
func NewConsolePrompter() *ConsolePrompter {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		Warn("标准输入不是终端,登录确认将读取管道输入")
	}
	return NewPrompter(os.Stdin, os.Stdout)
}

// NewPrompter 使用指定输入输出(测试用)
func NewPrompter(in io.Reader, out io.Writer) *ConsolePrompter {
	return &ConsolePrompter{
		in:  bufio.NewReader(in),
		out: out,
	}
}

// Wait 打印提示并阻塞到读取一行
// 输入结束(EOF)但已读到内容时视为确认
func (p *ConsolePrompter) Wait(message string) error {
	fmt.Fprintf(p.out, "%s ", message)

	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return nil
		}
		return fmt.Errorf("读取输入失败: %w", err)
	}
	return nil
}
