/*
 * Copyright 2025 The DocFlow Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package plugin

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"github.com/rulego/docflow/api/types"
	"github.com/rulego/docflow/document"
	"github.com/rulego/docflow/text"
	"github.com/rulego/docflow/utils/aes"
	"github.com/rulego/docflow/utils/maps"
)

// 邮件事件条目名
const (
	itemMailReceiver   = "nammailreceiver"
	itemMailReceiverCC = "nammailreceivercc"
	itemMailSubject    = "txtmailsubject"
	itemMailBody       = "rtfmailbody"
	itemMailInactive   = "keymailinactive"
)

// encPrefix 标记需要用引擎密钥解密的配置值
const encPrefix = "enc:"

// Message 待投递的邮件
type Message struct {
	To      []string
	Cc      []string
	Subject string
	Body    string
}

// Sender delivers composed messages. The SMTP implementation is the
// default; tests install a fake.
type Sender interface {
	Send(message Message) error
}

// MailPlugin composes mail from the event's mail items. Composition happens
// during Run; delivery is deferred to the close phase and dropped entirely
// on rollback.
type MailPlugin struct {
	ctx     types.WorkflowContext
	adapter *text.Adapter
	sender  Sender
	// pending 本步骤内组装、尚未投递的邮件
	pending []Message
}

var _ types.Plugin = (*MailPlugin)(nil)

// NewMailPlugin 创建邮件插件
func NewMailPlugin(sender Sender) *MailPlugin {
	return &MailPlugin{sender: sender}
}

// Init 插件初始化
func (p *MailPlugin) Init(ctx types.WorkflowContext) error {
	p.ctx = ctx
	p.adapter = text.NewAdapter(ctx.Config())
	return nil
}

// Run 组装邮件，投递推迟到Close阶段
func (p *MailPlugin) Run(workitem, event *document.ItemCollection) (*document.ItemCollection, error) {
	if event.GetItemValueBoolean(itemMailInactive) || event.GetItemValueString(itemMailInactive) == "1" {
		return workitem, nil
	}
	receivers := event.GetItemValueList(itemMailReceiver)
	if len(receivers) == 0 {
		return workitem, nil
	}

	to, err := p.resolveAddresses(receivers, workitem)
	if err != nil {
		return nil, err
	}
	cc, err := p.resolveAddresses(event.GetItemValueList(itemMailReceiverCC), workitem)
	if err != nil {
		return nil, err
	}
	subject, err := p.adapter.ReplaceDynamicValues(event.GetItemValueString(itemMailSubject), workitem)
	if err != nil {
		return nil, err
	}
	body, err := p.adapter.ReplaceDynamicValues(event.GetItemValueString(itemMailBody), workitem)
	if err != nil {
		return nil, err
	}

	p.pending = append(p.pending, Message{To: to, Cc: cc, Subject: subject, Body: body})
	return workitem, nil
}

// Close delivers the pending mail unless the step rolled back.
func (p *MailPlugin) Close(rollback bool) error {
	pending := p.pending
	p.pending = nil
	if rollback || p.sender == nil {
		return nil
	}
	for _, message := range pending {
		if err := p.sender.Send(message); err != nil {
			return err
		}
	}
	return nil
}

// resolveAddresses 展开收件人列表中的动态指令
func (p *MailPlugin) resolveAddresses(entries []string, workitem *document.ItemCollection) ([]string, error) {
	var result []string
	for _, entry := range entries {
		expanded, err := p.adapter.AdaptTextList(entry, workitem)
		if err != nil {
			return nil, types.NewPluginError("mail", types.CodeProcessingError, err.Error())
		}
		for _, address := range expanded {
			if strings.TrimSpace(address) != "" {
				result = append(result, strings.TrimSpace(address))
			}
		}
	}
	return result, nil
}

// SMTPConfiguration SMTP投递配置
type SMTPConfiguration struct {
	//Host Smtp主机地址
	Host string
	//Port Smtp端口
	Port int
	//Username 用户名
	Username string
	//Password 授权码，支持enc:前缀密文
	Password string
	//From 发件人邮箱
	From string
	//EnableTls 是否使用tls方式
	EnableTls bool
}

// SMTPSender delivers mail through an SMTP server.
type SMTPSender struct {
	config    SMTPConfiguration
	secretKey string
}

var _ Sender = (*SMTPSender)(nil)

// NewSMTPSenderFromDocument decodes the SMTP configuration from a
// configuration document, e.g. the mail section of a scheduler document.
func NewSMTPSenderFromDocument(doc *document.ItemCollection, secretKey string) (*SMTPSender, error) {
	var config SMTPConfiguration
	if err := maps.Map2StructWeakly(doc.ScalarMap(), &config); err != nil {
		return nil, err
	}
	return NewSMTPSender(config, secretKey)
}

// NewSMTPSender 创建SMTP投递器。密码密文用引擎密钥解密。
func NewSMTPSender(config SMTPConfiguration, secretKey string) (*SMTPSender, error) {
	if strings.HasPrefix(config.Password, encPrefix) {
		plain, err := aes.Decrypt(strings.TrimPrefix(config.Password, encPrefix), []byte(secretKey))
		if err != nil {
			return nil, err
		}
		config.Password = plain
	}
	return &SMTPSender{config: config, secretKey: secretKey}, nil
}

// Send 投递邮件
func (s *SMTPSender) Send(message Message) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	msg, sendTo := s.createMailMsg(message)
	if s.config.EnableTls {
		return s.sendWithTls(addr, auth, msg, sendTo)
	}
	return smtp.SendMail(addr, auth, s.config.From, sendTo, msg)
}

// createMailMsg 创建符合RFC 822标准的邮件消息
func (s *SMTPSender) createMailMsg(message Message) ([]byte, []string) {
	sendTo := append(append([]string(nil), message.To...), message.Cc...)
	msg := []byte("To: " + strings.Join(message.To, ",") + "\r\n" +
		"From: " + s.config.From + "\r\n" +
		"Subject: " + message.Subject + "\r\n" +
		"Cc: " + strings.Join(message.Cc, ",") + "\r\n" +
		"Content-Type: text/html; charset=UTF-8\r\n" +
		"\r\n" +
		message.Body)
	return msg, sendTo
}

// sendWithTls 通过TLS连接投递，用于从一开始就要求ssl连接的465端口
func (s *SMTPSender) sendWithTls(addr string, auth smtp.Auth, msg []byte, sendTo []string) error {
	host, _, _ := net.SplitHostPort(addr)
	conn, err := tls.Dial("tcp", addr, &tls.Config{
		InsecureSkipVerify: true,
		ServerName:         host,
	})
	if err != nil {
		return err
	}
	c, err := smtp.NewClient(conn, host)
	if err != nil {
		return err
	}
	defer c.Close()
	if err = c.Auth(auth); err != nil {
		return err
	}
	if err = c.Mail(s.config.From); err != nil {
		return err
	}
	for _, addr := range sendTo {
		if err = c.Rcpt(addr); err != nil {
			return err
		}
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err = w.Write(msg); err != nil {
		return err
	}
	if err = w.Close(); err != nil {
		return err
	}
	return c.Quit()
}
