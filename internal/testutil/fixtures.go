// Package testutil provides shared fixtures and helpers for tests. The
// fixtures below describe one coherent host: two OVS bridges, an uplink,
// one running VM, one stopped VM and one container, so cross-package
// tests agree on what the host looks like.
package testutil

// ShowOutput is `ovs-vsctl show` for the fixture host. vmbr0 carries the
// uplink and VM 100's tap; vmbr1 carries container 106's veth.
const ShowOutput = `aaaa0000-0000-0000-0000-000000000000
    Bridge vmbr0
        Port vmbr0
            Interface vmbr0
                type: internal
        Port eno1
            Interface eno1
        Port tap100i0
            Interface tap100i0
    Bridge vmbr1
        Port vmbr1
            Interface vmbr1
                type: internal
        Port veth106i0
            Interface veth106i0
    ovs_version: "3.1.0"
`

// BridgeList is `ovs-vsctl list bridge`. vmbr0 owns the span0 mirror.
const BridgeList = `_uuid               : 11111111-1111-1111-1111-111111111111
datapath_id         : "0000aabbccddeeff"
datapath_type       : system
fail_mode           : []
mirrors             : [aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeffff]
name                : vmbr0
ports               : [33333333-3333-3333-3333-333333333333, 44444444-4444-4444-4444-444444444444, 55555555-5555-5555-5555-555555555555]
stp_enable          : false

_uuid               : 22222222-2222-2222-2222-222222222222
datapath_id         : "0000bbccddeeff00"
datapath_type       : system
fail_mode           : []
mirrors             : []
name                : vmbr1
ports               : [66666666-6666-6666-6666-666666666666, 77777777-7777-7777-7777-777777777777]
stp_enable          : false
`

// PortList is `ovs-vsctl list port`.
const PortList = `_uuid               : 33333333-3333-3333-3333-333333333333
name                : vmbr0
tag                 : []
trunks              : []

_uuid               : 44444444-4444-4444-4444-444444444444
name                : eno1
tag                 : []
trunks              : []

_uuid               : 55555555-5555-5555-5555-555555555555
name                : tap100i0
tag                 : []
trunks              : []

_uuid               : 66666666-6666-6666-6666-666666666666
name                : vmbr1
tag                 : []
trunks              : []

_uuid               : 77777777-7777-7777-7777-777777777777
name                : veth106i0
tag                 : []
trunks              : []
`

// MirrorList is `ovs-vsctl list mirror`: span0 copies tap100i0 to eno1.
const MirrorList = `_uuid               : aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeffff
name                : span0
output_port         : 44444444-4444-4444-4444-444444444444
output_vlan         : []
select_all          : false
select_dst_port     : [55555555-5555-5555-5555-555555555555]
select_src_port     : [55555555-5555-5555-5555-555555555555]
statistics          : {tx_bytes=52340, tx_packets=412}
`

// TypeList is `ovs-vsctl --columns=name,type list interface`. The
// empty-typed entries exercise the name-prefix fallback.
const TypeList = `name                : vmbr0
type                : internal

name                : eno1
type                : ""

name                : tap100i0
type                : ""

name                : vmbr1
type                : internal

name                : veth106i0
type                : ""
`

// InterfacesFile is /etc/network/interfaces. vmbr0 is static with the
// host address and default gateway; vmbr1 is manual.
const InterfacesFile = `# network interface settings; autogenerated
auto lo
iface lo inet loopback

auto eno1
iface eno1 inet manual

auto vmbr0
iface vmbr0 inet static
        address 192.168.1.10/24
        gateway 192.168.1.1
        ovs_type OVSBridge
        ovs_ports eno1

auto vmbr1
iface vmbr1 inet manual
        ovs_type OVSBridge
`

// VMList is `qm list`: one running VM, one stopped.
const VMList = `      VMID NAME                 STATUS     MEM(MB)    BOOTDISK(GB) PID
       100 web-server           running    2048              32.00 1234
       101 db-server            stopped    4096              64.00 0
`

// VMConfig100 is `qm config 100` for the running VM on vmbr0.
const VMConfig100 = `boot: order=scsi0;net0
cores: 2
memory: 2048
name: web-server
net0: virtio=AA:BB:CC:DD:EE:01,bridge=vmbr0,firewall=1
scsi0: local-lvm:vm-100-disk-0,size=32G
`

// VMConfig101 is `qm config 101` for the stopped VM. Its tap does not
// exist on the switch while the VM is down.
const VMConfig101 = `cores: 4
memory: 4096
name: db-server
net0: virtio=AA:BB:CC:DD:EE:02,bridge=vmbr1
`

// ContainerList is `pct list`.
const ContainerList = `VMID       Status     Lock         Name
106        running                 cache
`

// ContainerConfig106 is `pct config 106` for the container on vmbr1.
const ContainerConfig106 = `arch: amd64
cores: 1
hostname: cache
memory: 512
net0: name=eth0,bridge=vmbr1,firewall=1,hwaddr=BC:24:11:2B:4C:8D,ip=dhcp,type=veth
ostype: debian
`

// BondShow is `ovs-appctl bond/show bond0` with eth2 active.
const BondShow = `---- bond0 ----
bond_mode: active-backup
bond may use recirculation: no, Recirc-ID : -1
bond-hash-basis: 0
updelay: 0 ms
downdelay: 0 ms
lacp_status: off

slave eth2: enabled
active slave

slave eth3: enabled
`

// BondPortRecord is `ovs-vsctl list port bond0`.
const BondPortRecord = `_uuid               : 88888888-8888-8888-8888-888888888888
bond_downdelay      : 0
bond_mode           : active-backup
bond_updelay        : 0
interfaces          : [99999999-9999-9999-9999-999999999999, aaaa9999-9999-9999-9999-999999999999]
lacp                : []
name                : bond0
tag                 : []
trunks              : []
`

// LACPShow is `ovs-appctl lacp/show bond0` for a negotiated aggregate.
const LACPShow = `---- bond0 ----
status: active negotiated
sys_id: aa:bb:cc:dd:ee:ff
sys_priority: 65534
aggregation key: 5
lacp_time: slow

slave: eth2: current attached
port_id: 6
port_priority: 65535
actor key: 5
partner key: 9
`

// InterfaceRecord is `ovs-vsctl list interface eno1` with counters.
const InterfaceRecord = `_uuid               : bbbb9999-9999-9999-9999-999999999999
admin_state         : up
link_state          : up
mac_in_use          : "52:54:00:12:34:56"
mtu                 : 1500
name                : eno1
statistics          : {collisions=0, rx_bytes=1024000, rx_dropped=3, rx_errors=0, rx_packets=8000, tx_bytes=2048000, tx_dropped=0, tx_errors=1, tx_packets=16000}
type                : ""
`

// IPLinkShow is `ip link show` with a veth peer suffix to strip.
const IPLinkShow = `1: lo: <LOOPBACK,UP,LOWER_UP> mtu 65536 qdisc noqueue state UNKNOWN mode DEFAULT group default qlen 1000
    link/loopback 00:00:00:00:00:00 brd 00:00:00:00:00:00
2: eno1: <BROADCAST,MULTICAST,UP,LOWER_UP> mtu 1500 qdisc pfifo_fast master ovs-system state UP mode DEFAULT group default qlen 1000
    link/ether 52:54:00:12:34:56 brd ff:ff:ff:ff:ff:ff
3: eno2: <BROADCAST,MULTICAST> mtu 1500 qdisc noop state DOWN mode DEFAULT group default qlen 1000
    link/ether 52:54:00:12:34:57 brd ff:ff:ff:ff:ff:ff
7: veth106i0@if6: <BROADCAST,MULTICAST,UP,LOWER_UP> mtu 1500 qdisc noqueue master ovs-system state UP mode DEFAULT group default qlen 1000
    link/ether fe:24:11:2b:4c:8d brd ff:ff:ff:ff:ff:ff
`

// NetFlowRecord is `ovs-vsctl list NetFlow <uuid>` for an enabled export.
const NetFlowRecord = `_uuid               : cccc9999-9999-9999-9999-999999999999
active_timeout      : 60
add_id_to_interface : false
engine_id           : []
engine_type         : []
targets             : ["10.0.0.5:2055"]
`
